package domain

import "time"

// Lead describes the company and contact under research.
type Lead struct {
	CompanyName     string `json:"company_name" yaml:"company_name"`
	PersonName      string `json:"person_name" yaml:"person_name"`
	PersonRole      string `json:"person_role,omitempty" yaml:"person_role,omitempty"`
	WebsiteURL      string `json:"website_url,omitempty" yaml:"website_url,omitempty"`
	LinkedInURL     string `json:"linkedin_url,omitempty" yaml:"linkedin_url,omitempty"`
	Email           string `json:"email,omitempty" yaml:"email,omitempty"`
	CompanyIndustry string `json:"company_industry,omitempty" yaml:"company_industry,omitempty"`
	CompanySize     string `json:"company_size,omitempty" yaml:"company_size,omitempty"`
	CompanyLocation string `json:"company_location,omitempty" yaml:"company_location,omitempty"`
	ContactType     string `json:"contact_type,omitempty" yaml:"contact_type,omitempty"`
}

// SalesReport is the assembled output of a full lead research run.
// Sections whose research step failed or was skipped are empty.
type SalesReport struct {
	Lead                 Lead          `json:"lead"`
	WebIntelligence      string        `json:"web_intelligence,omitempty"`
	WebsiteAnalysis      string        `json:"website_analysis,omitempty"`
	LinkedInProfile      string        `json:"linkedin_profile,omitempty"`
	IndustryProblems     string        `json:"industry_problems,omitempty"`
	RecommendedSolutions string        `json:"recommended_solutions,omitempty"`
	OutreachEmail        string        `json:"outreach_email,omitempty"`
	GeneratedAt          time.Time     `json:"generated_at"`
	Elapsed              time.Duration `json:"elapsed"`
}
