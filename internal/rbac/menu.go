package rbac

// MenuItem describes one navigable feature.
type MenuItem struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Icon       string `json:"icon"`
	Path       string `json:"path"`
	Permission string `json:"permission"`
}

var registry = []MenuItem{
	{ID: "dashboard", Label: "Dashboard", Icon: "LayoutDashboard", Path: "/dashboard", Permission: PermDashboard},
	{ID: "students", Label: "Students", Icon: "Users", Path: "/students", Permission: PermStudents},
	{ID: "rooms", Label: "Rooms", Icon: "Home", Path: "/rooms", Permission: PermRooms},
	{ID: "fees", Label: "Fees", Icon: "CreditCard", Path: "/fees", Permission: PermFees},
	{ID: "complaints", Label: "Complaints", Icon: "MessageSquare", Path: "/complaints", Permission: PermComplaints},
	{ID: "leave-requests", Label: "Leave Requests", Icon: "Calendar", Path: "/leave-requests", Permission: PermLeaveRequests},
	{ID: "visitor-logs", Label: "Visitor Logs", Icon: "UserCheck", Path: "/visitor-logs", Permission: PermVisitorLogs},
	{ID: "role-settings", Label: "Role Settings", Icon: "Settings", Path: "/role-settings", Permission: PermRoleSettings},

	{ID: "analytics", Label: "Analytics", Icon: "BarChart3", Path: "/analytics", Permission: PermAnalytics},
	{ID: "maintenance", Label: "Maintenance", Icon: "Wrench", Path: "/maintenance", Permission: PermMaintenance},
	{ID: "notifications", Label: "Notifications", Icon: "Bell", Path: "/notifications", Permission: PermNotifications},
	{ID: "backup", Label: "Backup & Restore", Icon: "Database", Path: "/backup", Permission: PermBackup},

	{ID: "my-profile", Label: "My Profile", Icon: "User", Path: "/my-profile", Permission: PermMyProfile},
	{ID: "my-fees", Label: "My Fees", Icon: "CreditCard", Path: "/my-fees", Permission: PermMyFees},
	{ID: "my-complaints", Label: "My Complaints", Icon: "MessageSquare", Path: "/my-complaints", Permission: PermMyComplaints},
	{ID: "my-leave-requests", Label: "My Leave Requests", Icon: "Calendar", Path: "/my-leave-requests", Permission: PermMyLeaveRequests},
	{ID: "my-room", Label: "My Room", Icon: "Home", Path: "/my-room", Permission: PermMyRoom},
	{ID: "announcements", Label: "Announcements", Icon: "Megaphone", Path: "/announcements", Permission: PermAnnouncements},
	{ID: "mess-menu", Label: "Mess Menu", Icon: "UtensilsCrossed", Path: "/mess-menu", Permission: PermMessMenu},
	{ID: "laundry", Label: "Laundry", Icon: "Shirt", Path: "/laundry", Permission: PermLaundry},
}

// AllMenuItems returns the full registry in declaration order.
func AllMenuItems() []MenuItem {
	out := make([]MenuItem, len(registry))
	copy(out, registry)
	return out
}

// MenuItemByID looks up a registry entry.
func MenuItemByID(id string) (MenuItem, bool) {
	for _, item := range registry {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

// Route pairs a path with the permission guarding it. An empty Permission
// means the route only requires an authenticated user.
type Route struct {
	Path       string
	Permission string
}

// RootPath is the layout route; it only requires an authenticated user.
const RootPath = "/"

// Routes returns the guarded page routes: the layout route first, then one
// route per registry entry in declaration order.
func Routes() []Route {
	routes := make([]Route, 0, len(registry)+1)
	routes = append(routes, Route{Path: RootPath})
	for _, item := range registry {
		routes = append(routes, Route{Path: item.Path, Permission: item.Permission})
	}
	return routes
}
