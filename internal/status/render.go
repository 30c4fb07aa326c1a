package status

import (
	"fmt"
	"strings"

	"github.com/xaenox/frontdesk/internal/models"
)

var featureLabels = map[models.Feature]string{
	models.FeatureGoogleReviews:     "Google review replies",
	models.FeatureProfileManagement: "profile management",
	models.FeatureSEOContent:        "SEO content",
	models.FeatureFollowUps:         "follow-ups",
}

// Render formats state for one query kind. Unknown kinds render the full status.
func Render(kind models.QueryKind, state SystemState) string {
	switch kind {
	case models.QueryGoogleStatus:
		return googleLine(state)
	case models.QueryTelegramStatus:
		return telegramLine(state)
	case models.QueryQuotaStatus:
		return strings.Join(quotaLines(state), "\n")
	case models.QueryFeatures:
		return featuresLine(state)
	}

	lines := []string{
		fmt.Sprintf("Assistant status: %s.", state.ProjectStatus),
		googleLine(state),
		telegramLine(state),
		featuresLine(state),
	}
	lines = append(lines, quotaLines(state)...)
	lines = append(lines, fmt.Sprintf("Pending follow-ups: %d.", state.PendingTasks))
	return strings.Join(lines, "\n")
}

func googleLine(s SystemState) string {
	if s.GoogleConnected {
		return "Google Business Profile: connected."
	}
	return "Google Business Profile: not connected."
}

func telegramLine(s SystemState) string {
	if s.TelegramConnected {
		return "Telegram: connected."
	}
	return "Telegram: not connected."
}

func featuresLine(s SystemState) string {
	if len(s.Features) == 0 {
		return "Enabled features: none yet."
	}
	labels := make([]string, 0, len(s.Features))
	for _, f := range s.Features {
		label, ok := featureLabels[f]
		if !ok {
			label = string(f)
		}
		labels = append(labels, label)
	}
	return "Enabled features: " + strings.Join(labels, ", ") + "."
}

func quotaLines(s SystemState) []string {
	return []string{
		fmt.Sprintf("Actions this minute: %d of %d (%d left).", s.ActionsThisMinute, s.Limits.ActionsPerMinute, s.MinuteRemaining()),
		fmt.Sprintf("Actions today: %d of %d (%d left).", s.ActionsToday, s.Limits.ActionsPerDay, s.DailyRemaining()),
		fmt.Sprintf("AI generations today: %d of %d (%d left).", s.UsageToday, s.Limits.UsagePerDay, s.UsageRemaining()),
	}
}
