package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteAbout is the about page.
	RouteAbout = "/about"
	// RouteContact is the contact page and form.
	RouteContact = "/contact"

	// RouteAuth is the auth page; ?mode= selects the form.
	RouteAuth = "/auth"
	// RouteLogin is the login form target.
	RouteLogin = "/auth/login"
	// RouteRegister is the registration form target.
	RouteRegister = "/auth/register"
	// RouteForgotPassword is the forgotten password form target.
	RouteForgotPassword = "/auth/forgot-password"
	// RouteResetPassword is the reset-password page reached from emailed links.
	RouteResetPassword = "/reset-password"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"

	// RouteDashboard is the sheet listing.
	RouteDashboard = "/dashboard"
	// RoutePremium is the premium offer.
	RoutePremium = "/premium"
	// RouteSubscription activates the simulated subscription.
	RouteSubscription = "/subscription"
	// RouteVerification receives teacher verification documents.
	RouteVerification = "/verification"
	// RouteDownload streams a sheet file.
	RouteDownload = "/download"

	// RouteAdmin is the admin page.
	RouteAdmin = "/admin"
	// RouteAdminSheets is the sheet creation target.
	RouteAdminSheets = "/admin/sheets"
	// RouteAdminSheetDelete is the sheet deletion confirmation and target.
	RouteAdminSheetDelete = "/admin/sheets/{id}/delete"
	// RouteAdminResetPassword resets another user's password.
	RouteAdminResetPassword = "/admin/reset-password"
	// RouteAdminResetShortcut is the configured one-click reset.
	RouteAdminResetShortcut = "/admin/reset-password/shortcut"

	// RouteLanguage stores the UI language preference.
	RouteLanguage = "/language"

	// RouteHealth is the health check.
	RouteHealth = "/health"
	// RouteHealthLive is the liveness probe.
	RouteHealthLive = "/health/live"
	// RouteHealthReady is the readiness probe.
	RouteHealthReady = "/health/ready"
	// RouteMetrics exposes Prometheus metrics.
	RouteMetrics = "/metrics"
	// RouteStatic serves embedded assets.
	RouteStatic = "/static/dist/*"
)

// Form values.
const (
	formConfirm    = "confirm"
	formConfirmYes = "yes"
)

// maxFormMemory is the part of a multipart form kept in memory.
const maxFormMemory = 1 << 20

// maxFieldSize limits one text field of a streamed multipart form.
const maxFieldSize = 64 << 10
