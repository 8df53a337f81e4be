package rbac

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Permission names one quiz action.
type Permission string

const (
	PermQuestionView    Permission = "question:view"
	PermQuestionCreate  Permission = "question:create"
	PermAttemptCreate   Permission = "attempt:create"
	PermAttemptViewOwn  Permission = "attempt:view-own"
	PermAttemptViewAll  Permission = "attempt:view-all"
	PermAttemptComplete Permission = "attempt:complete"
	PermResponseSubmit  Permission = "response:submit"
	PermResponseView    Permission = "response:view"
	PermResponseGrade   Permission = "response:grade"
)

// AllPermissions is every action the service guards.
var AllPermissions = []Permission{
	PermQuestionView, PermQuestionCreate,
	PermAttemptCreate, PermAttemptViewOwn, PermAttemptViewAll, PermAttemptComplete,
	PermResponseSubmit, PermResponseView, PermResponseGrade,
}

// RolePermissions is the default policy. Learners see only their own
// attempts; the owner check lives in the handlers.
var RolePermissions = map[Role][]Permission{
	RoleStudent: {
		PermQuestionView,
		PermAttemptCreate,
		PermAttemptViewOwn,
		PermAttemptComplete,
		PermResponseSubmit,
		PermResponseView,
	},
	RoleTeacher: {
		PermQuestionView,
		PermQuestionCreate,
		PermAttemptViewAll,
		PermAttemptComplete,
		PermResponseView,
		PermResponseGrade,
	},
	RoleAdmin: AllPermissions,
}
