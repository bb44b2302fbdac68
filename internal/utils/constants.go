package utils

const (
	OrganizationName                      = "Wedding"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	HeaderDeviceProfile = "X-Device-Profile"
)
