package classifier

import (
	"context"
	"regexp"

	"github.com/xaenox/frontdesk/internal/models"
)

// Classifier turns a user message into an Intent. It never fails: every
// problem degrades to a safe chat intent.
type Classifier interface {
	Classify(ctx context.Context, systemPrompt string, history []models.Turn, message string) models.Intent
}

type statusPattern struct {
	re    *regexp.Regexp
	query models.QueryKind
}

// Ordered: the first matching pattern wins.
var statusPatterns = []statusPattern{
	{regexp.MustCompile(`(?i)\bgoogle\b.*\b(connect(ed|ion)?|link(ed)?|set ?up|status|working)\b|\b(connect(ed|ion)?|link(ed)?)\b.*\bgoogle\b`), models.QueryGoogleStatus},
	{regexp.MustCompile(`(?i)\btelegram\b.*\b(connect(ed|ion)?|link(ed)?|set ?up|status|working)\b`), models.QueryTelegramStatus},
	{regexp.MustCompile(`(?i)\b(quota|usage)\b|\b(actions?|requests?) (left|remaining)\b|\bhow many (actions|requests)\b|\b(my|the|daily|rate) limits?\b`), models.QueryQuotaStatus},
	{regexp.MustCompile(`(?i)\b(what|which)\b.*\b(features?|capabilities)\b|\bwhat can you do\b|\b(enabled|active) features\b`), models.QueryFeatures},
	{regexp.MustCompile(`(?i)^\s*/?status\??\s*$|\b(what'?s|what is|show|check|give me)\b.{0,20}\b(my|the|system|bot|account)\s+status\b|\bsystem status\b`), models.QueryFullStatus},
}

// LocalMatcher answers status questions without calling the completion provider.
type LocalMatcher struct {
	patterns []statusPattern
}

func NewLocalMatcher() *LocalMatcher {
	return &LocalMatcher{patterns: statusPatterns}
}

// Match returns the query kind of the first pattern matching message.
func (m *LocalMatcher) Match(message string) (models.QueryKind, bool) {
	for _, p := range m.patterns {
		if p.re.MatchString(message) {
			return p.query, true
		}
	}
	return "", false
}
