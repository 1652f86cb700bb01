package source

import "github.com/hyperjump/grantseek/internal/models"

// DemoRecords returns the built-in sample grants used when the upstream API yields
// nothing. Each call returns a fresh slice.
func DemoRecords() []models.Record {
	return []models.Record{
		{
			ID:          "DEMO-001",
			Number:      "ED-2024-001",
			Title:       "Education Excellence Grant for Underserved Youth",
			Description: "This grant supports educational programs targeting disadvantaged youth in urban and rural communities. Funding can be used for after-school programs, tutoring, mentorship, and educational technology. Priority given to evidence-based interventions.",
			Agency:      "Department of Education",
			AmountMin:   "50000",
			AmountMax:   "500000",
			Deadline:    "2025-03-15",
			PostedDate:  "2024-11-01",
			Category:    "Education",
			URL:         "https://www.grants.gov/demo/001",
		},
		{
			ID:          "DEMO-002",
			Number:      "EPA-2024-002",
			Title:       "Environmental Protection and Climate Resilience Initiative",
			Description: "Support for community-based environmental projects including climate change adaptation, renewable energy, pollution reduction, and ecosystem restoration. Eligible activities include planning, implementation, and monitoring.",
			Agency:      "Environmental Protection Agency",
			AmountMin:   "100000",
			AmountMax:   "1000000",
			Deadline:    "2025-04-30",
			PostedDate:  "2024-11-01",
			Category:    "Environment",
			URL:         "https://www.grants.gov/demo/002",
		},
		{
			ID:          "DEMO-003",
			Number:      "HHS-2024-003",
			Title:       "Community Health and Wellness Program",
			Description: "Funding for community health initiatives including mental health services, substance abuse prevention, chronic disease management, and health education. Priority for underserved populations.",
			Agency:      "Department of Health and Human Services",
			AmountMin:   "75000",
			AmountMax:   "750000",
			Deadline:    "2025-05-15",
			PostedDate:  "2024-11-01",
			Category:    "Health",
			URL:         "https://www.grants.gov/demo/003",
		},
		{
			ID:          "DEMO-004",
			Number:      "ED-2024-004",
			Title:       "STEM Education Innovation Fund",
			Description: "Grants for innovative STEM education programs in K-12 schools. Supports curriculum development, teacher training, equipment purchase, and student engagement activities in science, technology, engineering, and mathematics.",
			Agency:      "Department of Education",
			AmountMin:   "25000",
			AmountMax:   "300000",
			Deadline:    "2025-06-01",
			PostedDate:  "2024-11-01",
			Category:    "Education",
			URL:         "https://www.grants.gov/demo/004",
		},
		{
			ID:          "DEMO-005",
			Number:      "HUD-2024-005",
			Title:       "Community Development and Social Services Grant",
			Description: "Support for community development projects including affordable housing, social services, workforce development, and community infrastructure. Emphasis on projects serving low-income communities.",
			Agency:      "Department of Housing and Urban Development",
			AmountMin:   "150000",
			AmountMax:   "2000000",
			Deadline:    "2025-07-15",
			PostedDate:  "2024-11-01",
			Category:    "Community",
			URL:         "https://www.grants.gov/demo/005",
		},
		{
			ID:          "DEMO-006",
			Number:      "HHS-2024-006",
			Title:       "Mental Health Services for Youth",
			Description: "Funding for mental health programs targeting children and adolescents. Supports counseling services, crisis intervention, prevention programs, and training for mental health professionals.",
			Agency:      "Department of Health and Human Services",
			AmountMin:   "100000",
			AmountMax:   "800000",
			Deadline:    "2025-03-31",
			PostedDate:  "2024-11-01",
			Category:    "Health",
			URL:         "https://www.grants.gov/demo/006",
		},
		{
			ID:          "DEMO-007",
			Number:      "EPA-2024-007",
			Title:       "Clean Water Infrastructure Grant",
			Description: "Support for water quality improvement projects including wastewater treatment, stormwater management, drinking water systems, and water conservation. Technical assistance available.",
			Agency:      "Environmental Protection Agency",
			AmountMin:   "200000",
			AmountMax:   "5000000",
			Deadline:    "2025-08-30",
			PostedDate:  "2024-11-01",
			Category:    "Environment",
			URL:         "https://www.grants.gov/demo/007",
		},
		{
			ID:          "DEMO-008",
			Number:      "NSF-2024-008",
			Title:       "Technology Innovation and Workforce Development",
			Description: "Grants for technology training and workforce development programs. Focus on emerging technologies, digital literacy, coding bootcamps, and career pathways in technology sectors.",
			Agency:      "National Science Foundation",
			AmountMin:   "50000",
			AmountMax:   "600000",
			Deadline:    "2025-04-15",
			PostedDate:  "2024-11-01",
			Category:    "Technology",
			URL:         "https://www.grants.gov/demo/008",
		},
	}
}
