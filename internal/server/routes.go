package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/gosuda/okrs/internal/api/v1"
	"github.com/gosuda/okrs/internal/okr"
)

func registerAuthRoutes(api huma.API, authSvc v1.AuthService) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store v1.DataStore, objectives v1.ObjectiveService, orgs okr.OrganizationResolver) {
	v1.RegisterObjectiveRoutes(api, objectives)
	v1.RegisterPeopleRoutes(api, store)
	v1.RegisterOrganizationRoutes(api, store)
	v1.RegisterDepartmentRoutes(api, store, orgs, objectives)
	v1.RegisterTeamRoutes(api, store, orgs)
}
