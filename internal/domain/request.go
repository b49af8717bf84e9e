package domain

import "time"

// RequestPriority orders pending work. Higher values dequeue first.
type RequestPriority int

const (
	PriorityLow      RequestPriority = 1
	PriorityNormal   RequestPriority = 2
	PriorityHigh     RequestPriority = 3
	PriorityUrgent   RequestPriority = 4
	PriorityCritical RequestPriority = 5
)

// Valid reports whether p is one of the defined priority levels.
func (p RequestPriority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

func (p RequestPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// RequestStatus is the lifecycle state of a submitted request.
// Transitions: pending → processing → completed | failed.
// Terminal states never transition back.
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestProcessing RequestStatus = "processing"
	RequestCompleted  RequestStatus = "completed"
	RequestFailed     RequestStatus = "failed"
)

// Request type tags used for capability matching.
const (
	TypeWebsiteResearch  = "website_research"
	TypeLinkedInResearch = "linkedin_research"
	TypeIndustryProblems = "industry_problems"
	TypeAISolutions      = "ai_solutions"
	TypeEmailGeneration  = "email_generation"
	TypeWebIntelligence  = "web_intelligence"
	TypeMarketResearch   = "market_research"
)

// Well-known payload keys.
const (
	KeyCompanyName      = "company_name"
	KeyPersonName       = "person_name"
	KeyPersonRole       = "person_role"
	KeyWebsiteURL       = "website_url"
	KeyLinkedInURL      = "linkedin_url"
	KeyCompanyIndustry  = "company_industry"
	KeyCompanySize      = "company_size"
	KeyCompanyLocation  = "company_location"
	KeyContactType      = "contact_type"
	KeyIndustryProblems = "industry_problems"
	KeyResearchSummary  = "research_summary"
)

// Request is one unit of submitted work, tracked through its own
// lifecycle independent of the agent that eventually serves it.
type Request struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Priority      RequestPriority `json:"priority"`
	Payload       Payload         `json:"payload"`
	SubmittedAt   time.Time       `json:"submitted_at"`
	AssignedAgent string          `json:"assigned_agent,omitempty"`
	Status        RequestStatus   `json:"status"`
	Result        any             `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
	Duration      float64         `json:"duration_seconds,omitempty"`
}
