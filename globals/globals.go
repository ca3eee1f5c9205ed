package globals

// Context keys
type ContextKey string

const RoleKey ContextKey = "role"
const UserIDKey ContextKey = "userId"
const SubjectKey ContextKey = "subject"

// Roles carried in tokens and context.
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
)
