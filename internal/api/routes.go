package api

import (
	"net/http"

	"github.com/danishmustafa86/aidlink/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(mux, domain.Intake.Handler().Routes())
	routes.Register(mux, domain.Cases.Handler().Routes())
	routes.Register(mux, domain.Notifications.Handler().Routes())
	routes.Register(mux, domain.Followups.Handler().Routes())
}
