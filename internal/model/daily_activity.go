package model

import "time"

const ActivityDateLayout = "2006-01-02"

// DailyActivity holds per-day attempt counters, keyed by UTC calendar date.
type DailyActivity struct {
	UserID             string `gorm:"type:varchar(64);primaryKey" json:"userId"`
	ActivityDate       string `gorm:"type:varchar(10);primaryKey" json:"activityDate"`
	QuestionsAttempted int    `gorm:"not null" json:"questionsAttempted"`
	QuestionsCorrect   int    `gorm:"not null" json:"questionsCorrect"`
}

func (DailyActivity) TableName() string { return "daily_activities" }

func ActivityDate(t time.Time) string {
	return t.UTC().Format(ActivityDateLayout)
}
