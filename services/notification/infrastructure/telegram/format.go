package telegram

import (
	"fmt"
	"html"
	"math"
)

// UsagePercent returns spent as a whole percentage of limit. A non-positive
// limit is reported as 100: any spend against it counts as fully used.
func UsagePercent(spent, limit float64) int {
	if limit <= 0 {
		return 100
	}
	return int(math.Round(spent / limit * 100))
}

// FormatLimitExceeded renders the budget limit alert. categoryName is escaped.
func FormatLimitExceeded(categoryName string, spent, limit float64) string {
	return fmt.Sprintf(
		"<b>Budget Limit Exceeded!</b>\n\nCategory: <b>%s</b>\nSpent: %.2f\nLimit: %.2f\nUsage: %d%%",
		html.EscapeString(categoryName), spent, limit, UsagePercent(spent, limit),
	)
}

// FormatGoalReached renders the goal completion message. goalName is escaped.
func FormatGoalReached(goalName string, current, target float64) string {
	return fmt.Sprintf(
		"<b>Goal Reached!</b>\n\nGoal: <b>%s</b>\nCurrent: %.2f\nTarget: %.2f\n\nCongratulations! You've reached your savings goal!",
		html.EscapeString(goalName), current, target,
	)
}
