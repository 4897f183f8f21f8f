package report

type Report struct {
	Run            *RunReport            `json:"run,omitempty"`
	Relayer        *RelayerReport        `json:"relayer,omitempty"`
	Detector       *DetectorReport       `json:"detector,omitempty"`
	Pool           *PoolReport           `json:"pool,omitempty"`
	Gateway        *GatewayReport        `json:"gateway,omitempty"`
	RedisPublisher *RedisPublisherReport `json:"redis_publisher,omitempty"`
}
