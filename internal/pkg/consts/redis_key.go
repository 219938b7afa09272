package consts

const (
	PostDirtyKey           = "post:dirty"
	PostDirtyProcessingKey = "post:dirty:processing"
	PostStatsKey           = "post:stats:"
	TokenRevokedKey        = "token:revoked:"
)

const (
	PostReconcileLock = "lock:post:reconcile"
)
