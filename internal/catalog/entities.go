package catalog

const (
	Categories     = "categories"
	Employees      = "employees"
	Users          = "users"
	Notifications  = "notifications"
	Packages       = "packages"
	Advertisements = "advertisements"
	TravelPlans    = "travel-plans"
)

var builtin = []Entity{
	{
		Name:         Categories,
		Label:        "Categories",
		Path:         "categories",
		WrapperKeys:  []string{"data", "categories"},
		SingleKeys:   []string{"category", "data"},
		SearchFields: []string{"name"},
		PageSize:     12,
		Fields:       []string{"name"},
		Rules: []Rule{
			{Field: "name", Kind: RuleRequired, Message: "Category name is required"},
		},
		Columns: []string{"id", "name", "updatedAt"},
	},
	{
		Name:         Employees,
		Label:        "Employees",
		Path:         "employees",
		WrapperKeys:  []string{"data", "employees"},
		SingleKeys:   []string{"employee", "data"},
		SearchFields: []string{"name", "firstName", "lastName", "email", "phone", "mobile"},
		Filters: []Filter{
			{Name: "department", Field: "department", Kind: FilterEquals},
			{Name: "status", Field: "status", Kind: FilterEquals},
			{Name: "role", Field: "role", Kind: FilterContains},
			{Name: "location", Field: "location", Kind: FilterEquals},
			{Name: "joinDate", Field: "joinDate", Kind: FilterDateOn},
		},
		PageSize: 24,
		Fields: []string{
			"firstName", "lastName", "email", "mobile", "password", "confirmPassword",
			"department", "role", "location", "accessRights",
			"bankName", "accountNumber", "confirmAccountNumber", "ifscCode", "profileImage",
		},
		ListFields:      []string{"accessRights"},
		TransientFields: []string{"confirmPassword", "confirmAccountNumber"},
		FileFields:      []string{"profileImage"},
		MultipartCreate: true,
		Rules: []Rule{
			{Field: "firstName", Kind: RuleRequired, Message: "First name is required"},
			{Field: "lastName", Kind: RuleRequired, Message: "Last name is required"},
			{Field: "email", Kind: RuleRequired, Message: "Email is required"},
			{Field: "email", Kind: RuleEmail, Message: "Please enter a valid email address"},
			{Field: "mobile", Kind: RuleMinLength, Min: 10, Message: "Mobile number must be at least 10 digits"},
			{Field: "password", Kind: RuleRequired, CreateOnly: true, Message: "Password is required"},
			{Field: "password", Kind: RuleMinLength, Min: 6, CreateOnly: true, Message: "Password must be at least 6 characters"},
			{Field: "confirmPassword", Kind: RuleMatches, Other: "password", CreateOnly: true, Message: "Passwords do not match"},
			{Field: "accessRights", Kind: RuleNonEmptyList, CreateOnly: true, Message: "Select at least one access right"},
			{Field: "accountNumber", Kind: RuleRequired, CreateOnly: true, Message: "Account number is required"},
			{Field: "confirmAccountNumber", Kind: RuleMatches, Other: "accountNumber", CreateOnly: true, Message: "Account numbers do not match"},
		},
		Columns: []string{"id", "name", "email", "department", "role", "status"},
	},
	{
		Name:         Users,
		Label:        "Users",
		Path:         "users",
		WrapperKeys:  []string{"data", "users"},
		SingleKeys:   []string{"user", "data"},
		SearchFields: []string{"name", "email"},
		Filters: []Filter{
			{Name: "mobile", Field: "mobile", Kind: FilterContains},
			{Name: "joinDate", Field: "joinDate", Kind: FilterDateOn},
		},
		PageSize: 22,
		Fields:   []string{"name", "email", "mobile"},
		Rules: []Rule{
			{Field: "name", Kind: RuleRequired, Message: "Name is required"},
			{Field: "email", Kind: RuleEmail, Message: "Please enter a valid email address"},
		},
		Columns: []string{"id", "name", "email", "mobile", "joinDate"},
	},
	{
		Name:         Notifications,
		Label:        "App Notifications",
		Path:         "notifications",
		WrapperKeys:  []string{"data", "notifications"},
		SingleKeys:   []string{"notification", "data"},
		SearchFields: []string{"title", "message"},
		Filters: []Filter{
			{Name: "status", Field: "status", Kind: FilterEquals},
			{Name: "category", Field: "category", Kind: FilterEquals},
			{Name: "targetAudience", Field: "targetAudience", Kind: FilterEquals},
			{Name: "date", Field: "createdDate", Kind: FilterDateOn},
		},
		PageSize: 12,
		Fields: []string{
			"title", "message", "targetAudience", "category", "userIds",
			"priority", "notificationType", "scheduledTime", "actionUrl", "imageUrl",
		},
		ListFields: []string{"userIds"},
		Rules: []Rule{
			{Field: "title", Kind: RuleRequired, Message: "Please fill in all required fields."},
			{Field: "message", Kind: RuleRequired, Message: "Please fill in all required fields."},
			{Field: "category", Kind: RuleRequiredWhen, Other: "targetAudience", WhenValue: "category", Message: "Please select a user category."},
			{Field: "userIds", Kind: RuleRequiredWhen, Other: "targetAudience", WhenValue: "specific", Message: "Please enter user IDs for specific targeting."},
		},
		Columns: []string{"id", "title", "category", "status", "createdDate"},
	},
	{
		Name:         Packages,
		Label:        "Travel Packages",
		Path:         "packages",
		WrapperKeys:  []string{"data", "packages"},
		SingleKeys:   []string{"package", "data"},
		SearchFields: []string{"name", "destination", "description", "category"},
		Filters: []Filter{
			{Name: "status", Field: "status", Kind: FilterEquals},
			{Name: "category", Field: "category", Kind: FilterEquals},
			{Name: "destination", Field: "destination", Kind: FilterContains},
			{Name: "priceRange", Field: "price", Kind: FilterRange},
			{Name: "dateFrom", Field: "createdAt", Kind: FilterDateFrom},
			{Name: "dateTo", Field: "createdAt", Kind: FilterDateTo},
		},
		PageSize: 24,
		Fields: []string{
			"name", "destination", "duration", "price", "category", "status",
			"description", "inclusions", "exclusions",
		},
		NumberFields: []string{"price"},
		ListFields:   []string{"inclusions", "exclusions"},
		Rules: []Rule{
			{Field: "name", Kind: RuleRequired, Message: "Package name is required"},
			{Field: "destination", Kind: RuleRequired, Message: "Destination is required"},
			{Field: "duration", Kind: RuleRequired, Message: "Duration is required"},
			{Field: "price", Kind: RuleRequired, Message: "Price is required"},
			{Field: "price", Kind: RuleMinNumber, Min: 0, Message: "Price cannot be negative"},
			{Field: "category", Kind: RuleRequired, Message: "Category is required"},
			{Field: "description", Kind: RuleRequired, Message: "Description is required"},
		},
		Columns: []string{"id", "name", "destination", "category", "price", "status"},
	},
	{
		Name:         Advertisements,
		Label:        "Vendor Advertisements",
		Path:         "advertisements",
		WrapperKeys:  []string{"data", "advertisements"},
		SingleKeys:   []string{"advertisement", "data"},
		SearchFields: []string{"title", "vendorName", "description", "location"},
		Filters: []Filter{
			{Name: "status", Field: "status", Kind: FilterEquals},
			{Name: "category", Field: "category", Kind: FilterEquals},
			{Name: "placement", Field: "placement", Kind: FilterEquals},
			{Name: "location", Field: "location", Kind: FilterContains},
			{Name: "dateFrom", Field: "startDate", Kind: FilterDateFrom},
			{Name: "dateTo", Field: "endDate", Kind: FilterDateTo},
			{Name: "priceRange", Field: "budget", Kind: FilterRange},
		},
		PageSize: 24,
		Fields: []string{
			"title", "description", "vendorId", "category", "placement",
			"location", "startDate", "endDate", "budget", "imageUrl",
		},
		NumberFields: []string{"budget"},
		Rules: []Rule{
			{Field: "title", Kind: RuleRequired, Message: "Advertisement title is required"},
			{Field: "description", Kind: RuleRequired, Message: "Description is required"},
			{Field: "vendorId", Kind: RuleRequired, Message: "Vendor is required"},
			{Field: "category", Kind: RuleRequired, Message: "Category is required"},
			{Field: "placement", Kind: RuleRequired, Message: "Placement is required"},
			{Field: "startDate", Kind: RuleRequired, Message: "Start date is required"},
			{Field: "endDate", Kind: RuleRequired, Message: "End date is required"},
			{Field: "budget", Kind: RuleMinNumber, Min: 1, Message: "Budget must be at least 1"},
		},
		Columns: []string{"id", "title", "vendorName", "placement", "budget", "status"},
	},
	{
		Name:         TravelPlans,
		Label:        "AI Travel Plans",
		Path:         "travel-plans",
		WrapperKeys:  []string{"data", "travelPlans", "plans"},
		SingleKeys:   []string{"travelPlan", "plan", "data"},
		SearchFields: []string{"title", "destination", "travelerName", "userName"},
		Filters: []Filter{
			{Name: "status", Field: "status", Kind: FilterEquals},
			{Name: "tripType", Field: "tripType", Kind: FilterEquals},
			{Name: "budget", Field: "budget", Kind: FilterRange},
			{Name: "dateFrom", Field: "startDate", Kind: FilterDateFrom},
			{Name: "dateTo", Field: "endDate", Kind: FilterDateTo},
		},
		PageSize: 24,
		ReadOnly: true,
		Columns:  []string{"id", "title", "destination", "tripType", "budget", "status"},
	},
}
