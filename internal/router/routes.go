package router

// Route names referenced across the app.
const (
	RouteHome          = "home"
	RouteCourse        = "course"
	RouteSignUp        = "signUp"
	RouteLogIn         = "logIn"
	RouteFinishAuth    = "finishAuth"
	RouteResetPassword = "resetPassword"
)

// DefaultRoutes is the navigation table: content routes need a signed-in
// user, the auth flows are public.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteHome, Path: "/", RequiresAuth: true},
		{Name: RouteCourse, Path: "/courses/:courseId", RequiresAuth: true},
		{Name: RouteSignUp, Path: "/signUp", RequiresAuth: false},
		{Name: RouteLogIn, Path: "/logIn", RequiresAuth: false},
		{Name: RouteFinishAuth, Path: "/logIn/finishAuth", RequiresAuth: false},
		{Name: RouteResetPassword, Path: "/resetPassword", RequiresAuth: false},
	}
}
