package jobs

// 任务名称常量.
const (
	JobOrphanBytesSweep = "orphan-bytes-sweep"
)

// Cron 表达式常量.
const (
	CronOrphanBytesSweep = "*/30 * * * *"
)

// SweepBatchSize 每次清理最多处理的已删除记录数.
const SweepBatchSize = 200
