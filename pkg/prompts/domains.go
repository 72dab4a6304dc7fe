package prompts

// Domains is the fixed list of business domains sampled for each generation request.
var Domains = []string{
	"E-commerce",
	"Healthcare",
	"Banking and Finance",
	"Social Media Platforms",
	"Education and Learning Management Systems",
	"Customer Relationship Management (CRM)",
	"Enterprise Resource Planning (ERP)",
	"Travel and Hospitality",
	"Retail and Inventory Management",
	"Government and Public Services",
	"Real Estate Management",
	"Telecommunications",
	"Gaming and Entertainment",
	"Supply Chain Management",
	"Human Resources Management Systems (HRMS)",
	"Cybersecurity and Threat Analysis",
	"Weather Forecasting Systems",
	"Transportation and Logistics",
	"Online Streaming Platforms",
	"IoT (Internet of Things) Applications",
	"Research and Data Analysis",
	"Energy and Utilities Management",
	"Blockchain and Cryptocurrency Platforms",
	"Sports Analytics Platforms",
	"Fraud Detection Systems",
	"Content Management Systems (CMS)",
	"Email and Communication Platforms",
	"Voting and Election Systems",
	"Insurance Management Systems",
	"Legal Case Management Systems",
}
