package model

type SyncedComponent string

const (
	SyncedComponentDetectorEvm    SyncedComponent = "DetectorEvm"
	SyncedComponentDetectorSolana SyncedComponent = "DetectorSolana"
	SyncedComponentDetectorSui    SyncedComponent = "DetectorSui"
	SyncedComponentDetectorNear   SyncedComponent = "DetectorNear"
)
