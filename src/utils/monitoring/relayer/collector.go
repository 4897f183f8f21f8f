package monitor_relayer

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Errors
	SignFailures          *prometheus.Desc
	VerifyFailures        *prometheus.Desc
	MintFailures          *prometheus.Desc
	CloseFailures         *prometheus.Desc
	SealRejections        *prometheus.Desc
	StoreFailures         *prometheus.Desc
	PermanentFailures     *prometheus.Desc
	EvmFetchFailures      *prometheus.Desc
	SolanaFetchFailures   *prometheus.Desc
	SuiFetchFailures      *prometheus.Desc
	NearFetchFailures     *prometheus.Desc
	DepositInsertFailures *prometheus.Desc
	PoolProvisionFailures *prometheus.Desc
	PoolAssignFailures    *prometheus.Desc
	WebhookAuthFailures   *prometheus.Desc
	RedisPublishFailures  *prometheus.Desc
	RedisPersistentErrors *prometheus.Desc

	// State
	SealsQueued                    *prometheus.Desc
	SealsProcessing                *prometheus.Desc
	SealsCompleted                 *prometheus.Desc
	SealsFailed                    *prometheus.Desc
	SealsRequeued                  *prometheus.Desc
	AverageSealsCompletedPerMinute *prometheus.Desc
	DepositsDetected               *prometheus.Desc
	DepositsDuplicate              *prometheus.Desc
	AverageDepositsPerMinute       *prometheus.Desc
	EvmCurrentHeight               *prometheus.Desc
	WalletsAvailable               *prometheus.Desc
	WalletsAssigned                *prometheus.Desc
	WalletsSealed                  *prometheus.Desc
	AddressesAssigned              *prometheus.Desc
	WebhooksReceived               *prometheus.Desc
	MessagesPublished              *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		// Errors
		SignFailures:          prometheus.NewDesc("sign_failures", "", nil, nil),
		VerifyFailures:        prometheus.NewDesc("verify_failures", "", nil, nil),
		MintFailures:          prometheus.NewDesc("mint_failures", "", nil, nil),
		CloseFailures:         prometheus.NewDesc("close_failures", "", nil, nil),
		SealRejections:        prometheus.NewDesc("seal_rejections", "", nil, nil),
		StoreFailures:         prometheus.NewDesc("store_failures", "", nil, nil),
		PermanentFailures:     prometheus.NewDesc("permanent_failures", "", nil, nil),
		EvmFetchFailures:      prometheus.NewDesc("evm_fetch_failures", "", nil, nil),
		SolanaFetchFailures:   prometheus.NewDesc("solana_fetch_failures", "", nil, nil),
		SuiFetchFailures:      prometheus.NewDesc("sui_fetch_failures", "", nil, nil),
		NearFetchFailures:     prometheus.NewDesc("near_fetch_failures", "", nil, nil),
		DepositInsertFailures: prometheus.NewDesc("deposit_insert_failures", "", nil, nil),
		PoolProvisionFailures: prometheus.NewDesc("pool_provision_failures", "", nil, nil),
		PoolAssignFailures:    prometheus.NewDesc("pool_assign_failures", "", nil, nil),
		WebhookAuthFailures:   prometheus.NewDesc("webhook_auth_failures", "", nil, nil),
		RedisPublishFailures:  prometheus.NewDesc("redis_publish_failures", "", nil, nil),
		RedisPersistentErrors: prometheus.NewDesc("redis_persistent_errors", "", nil, nil),

		// State
		SealsQueued:                    prometheus.NewDesc("seals_queued", "", nil, nil),
		SealsProcessing:                prometheus.NewDesc("seals_processing", "", nil, nil),
		SealsCompleted:                 prometheus.NewDesc("seals_completed", "", nil, nil),
		SealsFailed:                    prometheus.NewDesc("seals_failed", "", nil, nil),
		SealsRequeued:                  prometheus.NewDesc("seals_requeued", "", nil, nil),
		AverageSealsCompletedPerMinute: prometheus.NewDesc("average_seals_completed_per_minute", "", nil, nil),
		DepositsDetected:               prometheus.NewDesc("deposits_detected", "", nil, nil),
		DepositsDuplicate:              prometheus.NewDesc("deposits_duplicate", "", nil, nil),
		AverageDepositsPerMinute:       prometheus.NewDesc("average_deposits_per_minute", "", nil, nil),
		EvmCurrentHeight:               prometheus.NewDesc("evm_current_height", "", nil, nil),
		WalletsAvailable:               prometheus.NewDesc("wallets_available", "", nil, nil),
		WalletsAssigned:                prometheus.NewDesc("wallets_assigned", "", nil, nil),
		WalletsSealed:                  prometheus.NewDesc("wallets_sealed", "", nil, nil),
		AddressesAssigned:              prometheus.NewDesc("addresses_assigned", "", nil, nil),
		WebhooksReceived:               prometheus.NewDesc("webhooks_received", "", nil, nil),
		MessagesPublished:              prometheus.NewDesc("messages_published", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Run
	ch <- self.UpForSeconds

	// Errors
	ch <- self.SignFailures
	ch <- self.VerifyFailures
	ch <- self.MintFailures
	ch <- self.CloseFailures
	ch <- self.SealRejections
	ch <- self.StoreFailures
	ch <- self.PermanentFailures
	ch <- self.EvmFetchFailures
	ch <- self.SolanaFetchFailures
	ch <- self.SuiFetchFailures
	ch <- self.NearFetchFailures
	ch <- self.DepositInsertFailures
	ch <- self.PoolProvisionFailures
	ch <- self.PoolAssignFailures
	ch <- self.WebhookAuthFailures
	ch <- self.RedisPublishFailures
	ch <- self.RedisPersistentErrors

	// State
	ch <- self.SealsQueued
	ch <- self.SealsProcessing
	ch <- self.SealsCompleted
	ch <- self.SealsFailed
	ch <- self.SealsRequeued
	ch <- self.AverageSealsCompletedPerMinute
	ch <- self.DepositsDetected
	ch <- self.DepositsDuplicate
	ch <- self.AverageDepositsPerMinute
	ch <- self.EvmCurrentHeight
	ch <- self.WalletsAvailable
	ch <- self.WalletsAssigned
	ch <- self.WalletsSealed
	ch <- self.AddressesAssigned
	ch <- self.WebhooksReceived
	ch <- self.MessagesPublished
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	// Run
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.SignFailures, prometheus.CounterValue, float64(self.monitor.Report.Relayer.Errors.SignFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.VerifyFailures, prometheus.CounterValue, float64(self.monitor.Report.Relayer.Errors.VerifyFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.MintFailures, prometheus.CounterValue, float64(self.monitor.Report.Relayer.Errors.MintFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.CloseFailures, prometheus.CounterValue, float64(self.monitor.Report.Relayer.Errors.CloseFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.SealRejections, prometheus.CounterValue, float64(self.monitor.Report.Relayer.Errors.SealRejections.Load()))
	ch <- prometheus.MustNewConstMetric(self.StoreFailures, prometheus.CounterValue, float64(self.monitor.Report.Relayer.Errors.StoreFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.PermanentFailures, prometheus.CounterValue, float64(self.monitor.Report.Relayer.Errors.PermanentFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.EvmFetchFailures, prometheus.CounterValue, float64(self.monitor.Report.Detector.Errors.EvmFetchFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.SolanaFetchFailures, prometheus.CounterValue, float64(self.monitor.Report.Detector.Errors.SolanaFetchFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.SuiFetchFailures, prometheus.CounterValue, float64(self.monitor.Report.Detector.Errors.SuiFetchFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.NearFetchFailures, prometheus.CounterValue, float64(self.monitor.Report.Detector.Errors.NearFetchFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.DepositInsertFailures, prometheus.CounterValue, float64(self.monitor.Report.Detector.Errors.DepositInsertFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.PoolProvisionFailures, prometheus.CounterValue, float64(self.monitor.Report.Pool.Errors.ProvisionFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.PoolAssignFailures, prometheus.CounterValue, float64(self.monitor.Report.Pool.Errors.AssignFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.WebhookAuthFailures, prometheus.CounterValue, float64(self.monitor.Report.Gateway.Errors.WebhookAuthFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPublishFailures, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.Errors.Publish.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPersistentErrors, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.Errors.PersistentFailure.Load()))

	// State
	ch <- prometheus.MustNewConstMetric(self.SealsQueued, prometheus.GaugeValue, float64(self.monitor.Report.Relayer.State.SealsQueued.Load()))
	ch <- prometheus.MustNewConstMetric(self.SealsProcessing, prometheus.GaugeValue, float64(self.monitor.Report.Relayer.State.SealsProcessing.Load()))
	ch <- prometheus.MustNewConstMetric(self.SealsCompleted, prometheus.CounterValue, float64(self.monitor.Report.Relayer.State.SealsCompleted.Load()))
	ch <- prometheus.MustNewConstMetric(self.SealsFailed, prometheus.CounterValue, float64(self.monitor.Report.Relayer.State.SealsFailed.Load()))
	ch <- prometheus.MustNewConstMetric(self.SealsRequeued, prometheus.CounterValue, float64(self.monitor.Report.Relayer.State.SealsRequeued.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageSealsCompletedPerMinute, prometheus.GaugeValue, self.monitor.Report.Relayer.State.AverageSealsCompletedPerMinute.Load())
	ch <- prometheus.MustNewConstMetric(self.DepositsDetected, prometheus.CounterValue, float64(self.monitor.Report.Detector.State.DepositsDetected.Load()))
	ch <- prometheus.MustNewConstMetric(self.DepositsDuplicate, prometheus.CounterValue, float64(self.monitor.Report.Detector.State.DepositsDuplicate.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageDepositsPerMinute, prometheus.GaugeValue, self.monitor.Report.Detector.State.AverageDepositsPerMinute.Load())
	ch <- prometheus.MustNewConstMetric(self.EvmCurrentHeight, prometheus.GaugeValue, float64(self.monitor.Report.Detector.State.EvmCurrentHeight.Load()))
	ch <- prometheus.MustNewConstMetric(self.WalletsAvailable, prometheus.GaugeValue, float64(self.monitor.Report.Pool.State.WalletsAvailable.Load()))
	ch <- prometheus.MustNewConstMetric(self.WalletsAssigned, prometheus.GaugeValue, float64(self.monitor.Report.Pool.State.WalletsAssigned.Load()))
	ch <- prometheus.MustNewConstMetric(self.WalletsSealed, prometheus.GaugeValue, float64(self.monitor.Report.Pool.State.WalletsSealed.Load()))
	ch <- prometheus.MustNewConstMetric(self.AddressesAssigned, prometheus.CounterValue, float64(self.monitor.Report.Gateway.State.AddressesAssigned.Load()))
	ch <- prometheus.MustNewConstMetric(self.WebhooksReceived, prometheus.CounterValue, float64(self.monitor.Report.Gateway.State.WebhooksReceived.Load()))
	ch <- prometheus.MustNewConstMetric(self.MessagesPublished, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.State.MessagesPublished.Load()))
}
