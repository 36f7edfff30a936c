package models

type Statistics struct {
	TotalTasks     int64 `json:"totalTasks"`
	PendingTasks   int64 `json:"pendingTasks"`
	CompletedTasks int64 `json:"completedTasks"`
	OverdueTasks   int64 `json:"overdueTasks"`
}

type Charts struct {
	TaskDistribution   map[string]int64 `json:"taskDistribution"`
	TaskPriorityLevels map[string]int64 `json:"taskPriorityLevels"`
}

type DashboardData struct {
	Statistics  Statistics   `json:"statistics"`
	Charts      Charts       `json:"charts"`
	RecentTasks []RecentTask `json:"recentTasks"`
}
