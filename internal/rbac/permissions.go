package rbac

// Permission keys. Each guarded route maps to exactly one key.
const (
	PermDashboard     = "dashboard"
	PermStudents      = "students"
	PermRooms         = "rooms"
	PermFees          = "fees"
	PermComplaints    = "complaints"
	PermLeaveRequests = "leave-requests"
	PermVisitorLogs   = "visitor-logs"
	PermRoleSettings  = "role-settings"
	PermReports       = "reports"
	PermSettings      = "settings"
	PermAnalytics     = "analytics"
	PermMaintenance   = "maintenance"
	PermNotifications = "notifications"
	PermBackup        = "backup"

	PermMyProfile       = "my-profile"
	PermMyFees          = "my-fees"
	PermMyComplaints    = "my-complaints"
	PermMyLeaveRequests = "my-leave-requests"
	PermVisitorRequests = "visitor-requests"
	PermMyRoom          = "my-room"
	PermAnnouncements   = "announcements"
	PermMessMenu        = "mess-menu"
	PermLaundry         = "laundry"
)

var (
	superAdminPermissions = []string{
		PermDashboard,
		PermStudents,
		PermRooms,
		PermFees,
		PermComplaints,
		PermLeaveRequests,
		PermVisitorLogs,
		PermRoleSettings,
		PermReports,
		PermSettings,
		PermAnalytics,
		PermMaintenance,
		PermNotifications,
		PermBackup,
	}
	hostelAdminPermissions = []string{
		PermDashboard,
		PermStudents,
		PermRooms,
		PermFees,
		PermComplaints,
		PermLeaveRequests,
		PermVisitorLogs,
		PermReports,
		PermMaintenance,
	}
	studentPermissions = []string{
		PermDashboard,
		PermMyProfile,
		PermMyFees,
		PermMyComplaints,
		PermMyLeaveRequests,
		PermVisitorRequests,
		PermMyRoom,
		PermAnnouncements,
		PermMessMenu,
		PermLaundry,
	}
	receptionistPermissions = []string{
		PermDashboard,
		PermVisitorLogs,
		PermStudents,
		PermLeaveRequests,
		PermAnnouncements,
	}
)

var permissionLabels = map[string]string{
	PermDashboard:       "Dashboard Access",
	PermStudents:        "Student Management",
	PermRooms:           "Room Management",
	PermFees:            "Fee Management",
	PermComplaints:      "Complaint Management",
	PermLeaveRequests:   "Leave Request Management",
	PermVisitorLogs:     "Visitor Log Management",
	PermRoleSettings:    "Role & Permission Settings",
	PermReports:         "Reports & Analytics",
	PermSettings:        "System Settings",
	PermMyProfile:       "Personal Profile",
	PermMyFees:          "Personal Fee Records",
	PermMyComplaints:    "Personal Complaints",
	PermMyLeaveRequests: "Personal Leave Requests",
	PermVisitorRequests: "Visitor Request Management",
}

// PermissionsFor returns the fixed permission set of role in table order.
// Unknown roles get an empty set. The result is a copy.
func PermissionsFor(role Role) []string {
	var perms []string
	switch role {
	case SuperAdmin:
		perms = superAdminPermissions
	case HostelAdmin:
		perms = hostelAdminPermissions
	case Student:
		perms = studentPermissions
	case Receptionist:
		perms = receptionistPermissions
	default:
		return []string{}
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// Scopes lists every permission key granted to at least one role.
func Scopes() []string {
	seen := make(map[string]struct{})
	var scopes []string
	for _, role := range Roles() {
		for _, perm := range PermissionsFor(role) {
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			scopes = append(scopes, perm)
		}
	}
	return scopes
}

// PermissionLabel returns a display label for key.
func PermissionLabel(key string) string {
	if label, ok := permissionLabels[key]; ok {
		return label
	}
	if item, ok := MenuItemByID(key); ok {
		return item.Label
	}
	return key
}
