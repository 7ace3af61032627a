package obs

import "strings"

// CanonicalPath collapses id-bearing report segments so metric label
// cardinality stays bounded.
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if strings.HasPrefix(path, "/media/") {
		return "/media/:file"
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || parts[0] != "v1" || parts[1] != "reports" {
		return path
	}
	switch parts[2] {
	case "upload", "events":
		return path
	case "user":
		switch len(parts) {
		case 4:
			return "/v1/reports/user/:id"
		case 5:
			if parts[4] == "trends" {
				return "/v1/reports/user/:id/trends"
			}
		}
		return path
	default:
		switch len(parts) {
		case 3:
			return "/v1/reports/:id"
		case 4:
			if parts[3] == "insights" {
				return "/v1/reports/:id/insights"
			}
		}
		return path
	}
}
