package rbac

// HasPermission reports whether p holds key. A nil principal or an unknown
// role never holds any permission.
func HasPermission(p Principal, key string) bool {
	role := roleOf(p)
	if !role.Valid() {
		return false
	}
	for _, perm := range PermissionsFor(role) {
		if perm == key {
			return true
		}
	}
	return false
}

// MenuFor returns the registry entries p may navigate to, in registry order.
func MenuFor(p Principal) []MenuItem {
	role := roleOf(p)
	if !role.Valid() {
		return []MenuItem{}
	}
	granted := make(map[string]struct{})
	for _, perm := range PermissionsFor(role) {
		granted[perm] = struct{}{}
	}
	menu := make([]MenuItem, 0, len(registry))
	for _, item := range registry {
		if _, ok := granted[item.Permission]; ok {
			menu = append(menu, item)
		}
	}
	return menu
}

// MobileMenuFor picks the compact bottom bar: dashboard, rooms, one identity
// entry chosen by role, then fees. Missing slots are skipped.
func MobileMenuFor(p Principal) []MenuItem {
	menu := MenuFor(p)
	if len(menu) == 0 {
		return menu
	}
	role := roleOf(p)

	find := func(match func(MenuItem) bool) (MenuItem, bool) {
		for _, item := range menu {
			if match(item) {
				return item, true
			}
		}
		return MenuItem{}, false
	}
	byID := func(id string) func(MenuItem) bool {
		return func(item MenuItem) bool { return item.ID == id }
	}

	var identity func(MenuItem) bool
	switch {
	case role == Student:
		identity = byID("my-profile")
	case role.IsAdmin():
		identity = byID("role-settings")
	default:
		identity = func(item MenuItem) bool {
			return item.ID != "dashboard" && item.ID != "rooms" && item.ID != "fees"
		}
	}

	slots := []func(MenuItem) bool{
		byID("dashboard"),
		byID("rooms"),
		identity,
		func(item MenuItem) bool { return item.ID == "fees" || item.ID == "my-fees" },
	}
	mobile := make([]MenuItem, 0, len(slots))
	for _, slot := range slots {
		if item, ok := find(slot); ok {
			mobile = append(mobile, item)
		}
	}
	return mobile
}
