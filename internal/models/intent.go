package models

// QueryKind enumerates the system-status questions answered from stored state.
type QueryKind string

const (
	QueryGoogleStatus   QueryKind = "google_status"
	QueryTelegramStatus QueryKind = "telegram_status"
	QueryQuotaStatus    QueryKind = "quota_status"
	QueryFeatures       QueryKind = "features"
	QueryFullStatus     QueryKind = "full_status"
)

// ParseQueryKind validates s against the known query kinds.
func ParseQueryKind(s string) (QueryKind, bool) {
	switch k := QueryKind(s); k {
	case QueryGoogleStatus, QueryTelegramStatus, QueryQuotaStatus, QueryFeatures, QueryFullStatus:
		return k, true
	}
	return "", false
}

// IntentKind is the tag of an Intent.
type IntentKind string

const (
	IntentChat        IntentKind = "chat"
	IntentAction      IntentKind = "action"
	IntentSystemQuery IntentKind = "system_query"
)

// Intent is the classified meaning of an inbound message. The set of
// implementations is closed: ChatIntent, ActionIntent and SystemQueryIntent.
type Intent interface {
	Kind() IntentKind
	sealed()
}

// ChatIntent is a plain conversational reply.
type ChatIntent struct {
	Message string
}

// ActionIntent requests a registered action. Name is never empty.
type ActionIntent struct {
	Name    string
	Payload map[string]any
	Message string
}

// SystemQueryIntent asks about the project's own state.
type SystemQueryIntent struct {
	Query   QueryKind
	Message string
}

func (ChatIntent) Kind() IntentKind        { return IntentChat }
func (ActionIntent) Kind() IntentKind      { return IntentAction }
func (SystemQueryIntent) Kind() IntentKind { return IntentSystemQuery }

func (ChatIntent) sealed()        {}
func (ActionIntent) sealed()      {}
func (SystemQueryIntent) sealed() {}
