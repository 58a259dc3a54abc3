package incident

// Stage names, as they appear in Event stage times and failure outcomes.
const (
	ClientStage       = "Client"
	BuildServiceStage = "BuildService"
	DatabaseStage     = "Database"
)

// Window series recorded by the stages on every statistics flush.
const (
	StatTick                  = "tick"
	StatClientLoad            = "loadFromSimulation"
	StatClientMeanLatency     = "meanLatencyFromY"
	StatClientMeanAvail       = "meanAvailabilityFromY"
	StatClientEvents          = "events"
	StatServiceLoad           = "loadFromX"
	StatServiceMeanLatency    = "meanLatencyFromZ"
	StatServiceMeanAvail      = "meanAvailabilityFromZ"
	StatServiceQueueSize      = "queue-size"
	StatServiceThroughput     = "throughput"
	StatDatabaseLoad          = "loadFromY"
	StatDatabaseCapacity      = "zCapacity"
	StatServiceRejected       = "rejected-queue-events"
	StatServiceMaxQueueSize   = "max-queue-size"
	StatMeanTimeInQueue       = "mean-time-in-queue"
	StatMeanTimeInQueueOK     = "mean-time-in-queue-success"
	StatMeanTimeInQueueFailed = "mean-time-in-queue-failed"
	StatRunThroughput         = "run-throughput"
	StatRecoveryTime          = "recovery-time"
)
