package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/aivaterepositories/sight-sign/internal/site/models"
	grantstore "github.com/aivaterepositories/sight-sign/internal/site/store/grant"
	sitestore "github.com/aivaterepositories/sight-sign/internal/site/store/site"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
	"github.com/aivaterepositories/sight-sign/pkg/requestcontext"
)

type SiteServiceSuite struct {
	suite.Suite
	sites   *sitestore.InMemoryStore
	grants  *grantstore.InMemoryStore
	service *Service
}

func (s *SiteServiceSuite) SetupTest() {
	s.sites = sitestore.New()
	s.grants = grantstore.New()
	s.service = New(s.sites, s.grants)
}

func TestSiteServiceSuite(t *testing.T) {
	suite.Run(t, new(SiteServiceSuite))
}

func (s *SiteServiceSuite) authedCtx() (context.Context, id.PrincipalID) {
	principal := id.PrincipalID(uuid.New())
	return requestcontext.WithPrincipal(context.Background(), principal), principal
}

func (s *SiteServiceSuite) createSite(ctx context.Context) *models.Site {
	s.T().Helper()
	site, err := s.service.Create(ctx, "North Yard", "1 Dock Rd", "18:00:00")
	s.Require().NoError(err)
	return site
}

func (s *SiteServiceSuite) TestCreate() {
	s.Run("creates the site with the creator as admin", func() {
		ctx, principal := s.authedCtx()
		site := s.createSite(ctx)

		g, err := s.grants.Find(context.Background(), site.ID, principal)
		s.Require().NoError(err)
		s.Equal(models.RoleAdmin, g.Role)
	})

	s.Run("requires authentication", func() {
		_, err := s.service.Create(context.Background(), "North Yard", "", "18:00:00")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects a malformed cutoff", func() {
		ctx, _ := s.authedCtx()
		_, err := s.service.Create(ctx, "North Yard", "", "25:00:00")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects an empty name", func() {
		ctx, _ := s.authedCtx()
		_, err := s.service.Create(ctx, "  ", "", "18:00:00")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *SiteServiceSuite) TestGetAndList() {
	ctx, _ := s.authedCtx()
	site := s.createSite(ctx)

	s.Run("admin can read the site", func() {
		got, err := s.service.Get(ctx, site.ID)
		s.Require().NoError(err)
		s.Equal(site.ID, got.ID)
	})

	s.Run("a stranger is denied without leaking existence", func() {
		other, _ := s.authedCtx()
		_, err := s.service.Get(other, site.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("lists only administered sites", func() {
		otherCtx, _ := s.authedCtx()
		s.createSite(otherCtx)

		mine, err := s.service.ListFor(ctx)
		s.Require().NoError(err)
		s.Require().Len(mine, 1)
		s.Equal(site.ID, mine[0].ID)
	})
}

func (s *SiteServiceSuite) TestUpdate() {
	ctx, _ := s.authedCtx()
	site := s.createSite(ctx)

	s.Run("admin updates mutable fields", func() {
		name := "South Yard"
		cutoff := models.TimeOfDay(20 * 3600)
		got, err := s.service.Update(ctx, site.ID, models.SiteUpdate{Name: &name, AutoSignout: &cutoff})
		s.Require().NoError(err)
		s.Equal("South Yard", got.Name)
		s.Equal(cutoff, got.AutoSignout)
	})

	s.Run("supervisor cannot update", func() {
		supCtx, supervisor := s.authedCtx()
		_, err := s.service.Grant(ctx, site.ID, supervisor, models.RoleSupervisor)
		s.Require().NoError(err)

		name := "West Yard"
		_, err = s.service.Update(supCtx, site.ID, models.SiteUpdate{Name: &name})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("invalid update is rejected without mutating", func() {
		empty := " "
		_, err := s.service.Update(ctx, site.ID, models.SiteUpdate{Name: &empty})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		got, err := s.service.Get(ctx, site.ID)
		s.Require().NoError(err)
		s.NotEmpty(got.Name)
	})
}

func (s *SiteServiceSuite) TestGrant() {
	ctx, _ := s.authedCtx()
	site := s.createSite(ctx)

	s.Run("admin grants a role", func() {
		_, target := s.authedCtx()
		g, err := s.service.Grant(ctx, site.ID, target, models.RoleSupervisor)
		s.Require().NoError(err)
		s.Equal(models.RoleSupervisor, g.Role)
	})

	s.Run("re-granting the same role is a no-op", func() {
		_, target := s.authedCtx()
		_, err := s.service.Grant(ctx, site.ID, target, models.RoleAdmin)
		s.Require().NoError(err)

		g, err := s.service.Grant(ctx, site.ID, target, models.RoleAdmin)
		s.Require().NoError(err)
		s.Equal(models.RoleAdmin, g.Role)
	})

	s.Run("a different role is an explicit conflict", func() {
		_, target := s.authedCtx()
		_, err := s.service.Grant(ctx, site.ID, target, models.RoleSupervisor)
		s.Require().NoError(err)

		_, err = s.service.Grant(ctx, site.ID, target, models.RoleAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("non-admin cannot grant", func() {
		supCtx, supervisor := s.authedCtx()
		_, err := s.service.Grant(ctx, site.ID, supervisor, models.RoleSupervisor)
		s.Require().NoError(err)

		_, target := s.authedCtx()
		_, err = s.service.Grant(supCtx, site.ID, target, models.RoleSupervisor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *SiteServiceSuite) TestRevoke() {
	s.Run("revokes a supervisor grant", func() {
		ctx, _ := s.authedCtx()
		site := s.createSite(ctx)
		_, target := s.authedCtx()
		_, err := s.service.Grant(ctx, site.ID, target, models.RoleSupervisor)
		s.Require().NoError(err)

		s.Require().NoError(s.service.Revoke(ctx, site.ID, target))

		ok, err := s.service.IsAdmin(context.Background(), target, site.ID)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("refuses to revoke the last admin", func() {
		ctx, principal := s.authedCtx()
		site := s.createSite(ctx)

		err := s.service.Revoke(ctx, site.ID, principal)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("an admin can leave once another admin exists", func() {
		ctx, principal := s.authedCtx()
		site := s.createSite(ctx)
		_, second := s.authedCtx()
		_, err := s.service.Grant(ctx, site.ID, second, models.RoleAdmin)
		s.Require().NoError(err)

		s.Require().NoError(s.service.Revoke(ctx, site.ID, principal))
	})

	s.Run("revoking a missing grant is not found", func() {
		ctx, _ := s.authedCtx()
		site := s.createSite(ctx)
		err := s.service.Revoke(ctx, site.ID, id.PrincipalID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *SiteServiceSuite) TestIsAdmin() {
	ctx, principal := s.authedCtx()
	site := s.createSite(ctx)

	s.Run("true for any grant holder", func() {
		ok, err := s.service.IsAdmin(context.Background(), principal, site.ID)
		s.Require().NoError(err)
		s.True(ok)

		_, supervisor := s.authedCtx()
		_, err = s.service.Grant(ctx, site.ID, supervisor, models.RoleSupervisor)
		s.Require().NoError(err)

		ok, err = s.service.IsAdmin(context.Background(), supervisor, site.ID)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("false for strangers and nil principals", func() {
		ok, err := s.service.IsAdmin(context.Background(), id.PrincipalID(uuid.New()), site.ID)
		s.Require().NoError(err)
		s.False(ok)

		ok, err = s.service.IsAdmin(context.Background(), id.PrincipalID{}, site.ID)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("false immediately after revocation", func() {
		_, second := s.authedCtx()
		_, err := s.service.Grant(ctx, site.ID, second, models.RoleAdmin)
		s.Require().NoError(err)
		s.Require().NoError(s.service.Revoke(ctx, site.ID, second))

		ok, err := s.service.IsAdmin(context.Background(), second, site.ID)
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *SiteServiceSuite) TestMembers() {
	ctx, _ := s.authedCtx()
	site := s.createSite(ctx)
	_, supervisor := s.authedCtx()
	_, err := s.service.Grant(ctx, site.ID, supervisor, models.RoleSupervisor)
	s.Require().NoError(err)

	members, err := s.service.Members(ctx, site.ID)
	s.Require().NoError(err)
	s.Len(members, 2)

	other, _ := s.authedCtx()
	_, err = s.service.Members(other, site.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
