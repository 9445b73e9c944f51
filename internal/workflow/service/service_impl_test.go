package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/cache"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/config"
	"github.com/smallbiznis/pathway/internal/orgcontext"
	templatedomain "github.com/smallbiznis/pathway/internal/processtemplate/domain"
	templaterepo "github.com/smallbiznis/pathway/internal/processtemplate/repository"
	rcdomain "github.com/smallbiznis/pathway/internal/representingcountry/domain"
	"github.com/smallbiznis/pathway/internal/workflow/domain"
	"github.com/smallbiznis/pathway/internal/workflow/repository"
	dbpkg "github.com/smallbiznis/pathway/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testOrgID = snowflake.ID(1001)

type fixture struct {
	t     *testing.T
	db    *gorm.DB
	node  *snowflake.Node
	svc   *Service
	cache cache.WorkflowCache
	ctx   context.Context
}

func catalogNames() []string {
	entries := config.DefaultProcessCatalog().Templates
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names
}

func newFixture(t *testing.T, templates ...string) *fixture {
	t.Helper()
	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&rcdomain.RepresentingCountry{},
		&templatedomain.ProcessTemplate{},
		&domain.Status{},
		&domain.SubStatus{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	if len(templates) == 0 {
		templates = catalogNames()
	}
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	for i, name := range templates {
		require.NoError(t, db.Create(&templatedomain.ProcessTemplate{
			ID:        node.Generate(),
			Name:      name,
			Slug:      strings.ToLower(strings.ReplaceAll(name, " ", "-")),
			Color:     templatedomain.DefaultColor,
			Order:     i + 1,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error)
	}

	workflowCache := cache.NewMemoryWorkflowCache(time.Minute)
	svc := NewService(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clock.NewFakeClock(now),
		Repo:         repository.NewRepository(db),
		TemplateRepo: templaterepo.NewRepository(db),
		Cache:        workflowCache,
	}).(*Service)

	return &fixture{
		t:     t,
		db:    db,
		node:  node,
		svc:   svc,
		cache: workflowCache,
		ctx:   orgcontext.WithOrgID(context.Background(), testOrgID),
	}
}

func (f *fixture) createCountry(orgID snowflake.ID, code string) string {
	f.t.Helper()
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	country := rcdomain.RepresentingCountry{
		ID:          f.node.Generate(),
		OrgID:       orgID,
		CountryCode: code,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(f.t, f.db.Create(&country).Error)
	return country.ID.String()
}

func (f *fixture) seededCountry(code string) string {
	f.t.Helper()
	id := f.createCountry(testOrgID, code)
	_, err := f.svc.SeedWorkflow(f.ctx, id)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) list(countryID string) []domain.StatusWithSubStatuses {
	f.t.Helper()
	workflow, err := f.svc.ListWorkflow(f.ctx, countryID, domain.ListWorkflowRequest{})
	require.NoError(f.t, err)
	return workflow
}

func (f *fixture) statusByName(countryID, name string) domain.StatusResponse {
	f.t.Helper()
	for _, step := range f.list(countryID) {
		if step.Status.StatusName == name {
			return step.Status
		}
	}
	f.t.Fatalf("status %q not found", name)
	return domain.StatusResponse{}
}

func names(workflow []domain.StatusWithSubStatuses) []string {
	out := make([]string, 0, len(workflow))
	for _, step := range workflow {
		out = append(out, step.Status.StatusName)
	}
	return out
}

func orders(workflow []domain.StatusWithSubStatuses) []int {
	out := make([]int, 0, len(workflow))
	for _, step := range workflow {
		out = append(out, step.Status.Order)
	}
	return out
}

func TestSeedWorkflowFollowsCatalogOrder(t *testing.T) {
	f := newFixture(t)
	countryID := f.seededCountry("CA")

	workflow := f.list(countryID)
	require.Len(t, workflow, 12)
	assert.Equal(t, catalogNames(), names(workflow))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, orders(workflow))
	for _, step := range workflow {
		assert.True(t, step.Status.IsActive)
		assert.Nil(t, step.Status.CustomName)
		assert.Nil(t, step.Status.Notes)
	}
	assert.True(t, workflow[0].Status.IsSystem)
}

func TestSeedWorkflowPutsNewFirst(t *testing.T) {
	f := newFixture(t, "Application Submitted", "New", "Enrolled")
	countryID := f.seededCountry("AU")

	workflow := f.list(countryID)
	assert.Equal(t, []string{"New", "Application Submitted", "Enrolled"}, names(workflow))
	assert.Equal(t, []int{1, 2, 3}, orders(workflow))
}

func TestSeedWorkflowAddsNewWhenCatalogLacksIt(t *testing.T) {
	f := newFixture(t, "Application Submitted", "Enrolled")
	countryID := f.seededCountry("NZ")

	workflow := f.list(countryID)
	assert.Equal(t, []string{"New", "Application Submitted", "Enrolled"}, names(workflow))
	assert.Equal(t, 1, workflow[0].Status.Order)
}

func TestReseedIsIdempotentAndKeepsCustomizations(t *testing.T) {
	f := newFixture(t)
	countryID := f.seededCountry("CA")

	offer := f.statusByName(countryID, "Conditional Offer")
	_, err := f.svc.RenameStatus(f.ctx, domain.RenameStatusRequest{
		RepresentingCountryID: countryID,
		StatusID:              offer.ID,
		CustomName:            "Offer (conditional)",
	})
	require.NoError(t, err)
	_, err = f.svc.ToggleStatusActive(f.ctx, domain.StatusRef{RepresentingCountryID: countryID, StatusID: offer.ID})
	require.NoError(t, err)

	_, err = f.svc.SeedWorkflow(f.ctx, countryID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&domain.Status{}).Count(&count).Error)
	assert.EqualValues(t, 12, count)

	after := f.statusByName(countryID, "Conditional Offer")
	assert.Equal(t, offer.ID, after.ID)
	require.NotNil(t, after.CustomName)
	assert.Equal(t, "Offer (conditional)", *after.CustomName)
	assert.Equal(t, "Offer (conditional)", after.DisplayName)
	assert.False(t, after.IsActive)
}

func TestReseedRestoresCatalogPositions(t *testing.T) {
	f := newFixture(t, "New", "A", "B")
	countryID := f.seededCountry("CA")

	a := f.statusByName(countryID, "A")
	b := f.statusByName(countryID, "B")
	_, err := f.svc.ReorderStatuses(f.ctx, domain.ReorderRequest{
		RepresentingCountryID: countryID,
		Orders:                []domain.StatusOrder{{ID: a.ID, Order: 3}, {ID: b.ID, Order: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"New", "B", "A"}, names(f.list(countryID)))

	result, err := f.svc.SeedInTx(f.ctx, f.db, testOrgID, mustID(t, countryID))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 2, result.Reordered)
}

func TestAddStatusIsScopedToCountry(t *testing.T) {
	f := newFixture(t)
	canada := f.seededCountry("CA")
	australia := f.seededCountry("AU")

	created, err := f.svc.AddStatus(f.ctx, domain.AddStatusRequest{RepresentingCountryID: canada, StatusName: "Interview"})
	require.NoError(t, err)
	assert.Equal(t, 13, created.Order)
	assert.True(t, created.IsActive)

	_, err = f.svc.AddStatus(f.ctx, domain.AddStatusRequest{RepresentingCountryID: canada, StatusName: " Interview "})
	assert.ErrorIs(t, err, domain.ErrDuplicateStatusName)

	_, err = f.svc.AddStatus(f.ctx, domain.AddStatusRequest{RepresentingCountryID: australia, StatusName: "Interview"})
	require.NoError(t, err)
}

func TestAddStatusValidatesName(t *testing.T) {
	f := newFixture(t)
	countryID := f.seededCountry("CA")

	_, err := f.svc.AddStatus(f.ctx, domain.AddStatusRequest{RepresentingCountryID: countryID, StatusName: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusName)

	_, err = f.svc.AddStatus(f.ctx, domain.AddStatusRequest{RepresentingCountryID: countryID, StatusName: strings.Repeat("x", 256)})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusName)

	_, err = f.svc.AddStatus(f.ctx, domain.AddStatusRequest{RepresentingCountryID: countryID, StatusName: strings.Repeat("é", 255)})
	require.NoError(t, err)
}

func TestAddStatusOnEmptyWorkflowStartsAtOne(t *testing.T) {
	f := newFixture(t)
	countryID := f.createCountry(testOrgID, "IE")

	created, err := f.svc.AddStatus(f.ctx, domain.AddStatusRequest{RepresentingCountryID: countryID, StatusName: "Interview"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Order)
}

func TestDeleteStatusCascadesToSubStatuses(t *testing.T) {
	f := newFixture(t)
	countryID := f.seededCountry("CA")
	visa := f.statusByName(countryID, "Visa Applied")

	for _, name := range []string{"Biometrics", "Medical"} {
		_, err := f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{
			RepresentingCountryID: countryID,
			StatusID:              visa.ID,
			Name:                  name,
		})
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.DeleteStatus(f.ctx, domain.StatusRef{RepresentingCountryID: countryID, StatusID: visa.ID}))

	workflow := f.list(countryID)
	assert.Len(t, workflow, 11)
	assert.NotContains(t, names(workflow), "Visa Applied")

	var liveSubs int64
	require.NoError(t, f.db.Model(&domain.SubStatus{}).Count(&liveSubs).Error)
	assert.Zero(t, liveSubs)

	trashed, err := f.svc.ListWorkflow(f.ctx, countryID, domain.ListWorkflowRequest{WithTrashed: true})
	require.NoError(t, err)
	require.Len(t, trashed, 12)
	var found bool
	for _, step := range trashed {
		if step.Status.ID != visa.ID {
			continue
		}
		found = true
		assert.NotNil(t, step.Status.DeletedAt)
		require.Len(t, step.SubStatuses, 2)
		for _, sub := range step.SubStatuses {
			assert.NotNil(t, sub.DeletedAt)
		}
	}
	assert.True(t, found)
}

func TestDeletedStatusNameCanBeAddedAgain(t *testing.T) {
	f := newFixture(t)
	countryID := f.seededCountry("CA")

	created, err := f.svc.AddStatus(f.ctx, domain.AddStatusRequest{RepresentingCountryID: countryID, StatusName: "Interview"})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteStatus(f.ctx, domain.StatusRef{RepresentingCountryID: countryID, StatusID: created.ID}))

	again, err := f.svc.AddStatus(f.ctx, domain.AddStatusRequest{RepresentingCountryID: countryID, StatusName: "Interview"})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, again.ID)
	assert.Equal(t, 13, again.Order)
}

func TestReorderKeepsNewAnchored(t *testing.T) {
	f := newFixture(t, "New", "A", "B")
	countryID := f.seededCountry("CA")

	newStatus := f.statusByName(countryID, "New")
	a := f.statusByName(countryID, "A")
	b := f.statusByName(countryID, "B")

	workflow, err := f.svc.ReorderStatuses(f.ctx, domain.ReorderRequest{
		RepresentingCountryID: countryID,
		Orders: []domain.StatusOrder{
			{ID: newStatus.ID, Order: 3},
			{ID: a.ID, Order: 1},
			{ID: b.ID, Order: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.statusByName(countryID, "New").Order)
	assert.Equal(t, 1, f.statusByName(countryID, "A").Order)
	assert.Equal(t, 2, f.statusByName(countryID, "B").Order)
	require.Len(t, workflow, 3)
}

func TestReorderToleratesDuplicateOrders(t *testing.T) {
	f := newFixture(t, "New", "A", "B")
	countryID := f.seededCountry("CA")
	a := f.statusByName(countryID, "A")

	workflow, err := f.svc.ReorderStatuses(f.ctx, domain.ReorderRequest{
		RepresentingCountryID: countryID,
		Orders:                []domain.StatusOrder{{ID: a.ID, Order: 1}},
	})
	require.NoError(t, err)

	// Equal positions are listed in insertion order.
	assert.Equal(t, []string{"New", "A", "B"}, names(workflow))
	assert.Equal(t, []int{1, 1, 3}, orders(workflow))
}

func TestReorderValidatesPayload(t *testing.T) {
	f := newFixture(t, "New", "A")
	countryID := f.seededCountry("CA")
	a := f.statusByName(countryID, "A")

	_, err := f.svc.ReorderStatuses(f.ctx, domain.ReorderRequest{RepresentingCountryID: countryID})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusOrders)

	_, err = f.svc.ReorderStatuses(f.ctx, domain.ReorderRequest{
		RepresentingCountryID: countryID,
		Orders:                []domain.StatusOrder{{ID: a.ID, Order: 0}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, err = f.svc.ReorderStatuses(f.ctx, domain.ReorderRequest{
		RepresentingCountryID: countryID,
		Orders:                []domain.StatusOrder{{ID: "not-an-id", Order: 2}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusID)

	_, err = f.svc.ReorderStatuses(f.ctx, domain.ReorderRequest{
		RepresentingCountryID: countryID,
		Orders:                []domain.StatusOrder{{ID: a.ID, Order: 2}, {ID: "424242", Order: 3}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusID)
	assert.Equal(t, 2, f.statusByName(countryID, "A").Order)
}

func TestReorderSkipsStatusesOfOtherCountries(t *testing.T) {
	f := newFixture(t, "New", "A", "B")
	canada := f.seededCountry("CA")
	australia := f.seededCountry("AU")

	caA := f.statusByName(canada, "A")
	auA := f.statusByName(australia, "A")

	_, err := f.svc.ReorderStatuses(f.ctx, domain.ReorderRequest{
		RepresentingCountryID: canada,
		Orders:                []domain.StatusOrder{{ID: caA.ID, Order: 5}, {ID: auA.ID, Order: 9}},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, f.statusByName(canada, "A").Order)
	assert.Equal(t, 2, f.statusByName(australia, "A").Order)
}

func TestNewStatusIsLocked(t *testing.T) {
	f := newFixture(t)
	countryID := f.seededCountry("CA")
	newStatus := f.statusByName(countryID, "New")

	_, err := f.svc.RenameStatus(f.ctx, domain.RenameStatusRequest{
		RepresentingCountryID: countryID,
		StatusID:              newStatus.ID,
		CustomName:            "Fresh lead",
	})
	assert.ErrorIs(t, err, domain.ErrSystemStatusLocked)

	err = f.svc.DeleteStatus(f.ctx, domain.StatusRef{RepresentingCountryID: countryID, StatusID: newStatus.ID})
	assert.ErrorIs(t, err, domain.ErrSystemStatusLocked)

	after := f.statusByName(countryID, "New")
	assert.Nil(t, after.CustomName)
}

func TestNewStatusCanBeToggled(t *testing.T) {
	f := newFixture(t)
	countryID := f.seededCountry("CA")
	newStatus := f.statusByName(countryID, "New")

	toggled, err := f.svc.ToggleStatusActive(f.ctx, domain.StatusRef{RepresentingCountryID: countryID, StatusID: newStatus.ID})
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = f.svc.ToggleStatusActive(f.ctx, domain.StatusRef{RepresentingCountryID: countryID, StatusID: newStatus.ID})
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
}

func TestRenameStatus(t *testing.T) {
	f := newFixture(t)
	countryID := f.seededCountry("CA")
	cas := f.statusByName(countryID, "CAS Issued")

	renamed, err := f.svc.RenameStatus(f.ctx, domain.RenameStatusRequest{
		RepresentingCountryID: countryID,
		StatusID:              cas.ID,
		CustomName:            "  Letter of Acceptance  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "CAS Issued", renamed.StatusName)
	assert.Equal(t, "Letter of Acceptance", renamed.DisplayName)
	assert.Equal(t, cas.Order, renamed.Order)

	_, err = f.svc.RenameStatus(f.ctx, domain.RenameStatusRequest{
		RepresentingCountryID: countryID,
		StatusID:              cas.ID,
		CustomName:            "",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomName)
}

func TestUpdateStatusNotes(t *testing.T) {
	f := newFixture(t)
	countryID := f.seededCountry("CA")
	cas := f.statusByName(countryID, "CAS Issued")

	notes := "Ask the university for the CAS number"
	updated, err := f.svc.UpdateStatusNotes(f.ctx, domain.UpdateStatusNotesRequest{
		RepresentingCountryID: countryID,
		StatusID:              cas.ID,
		Notes:                 &notes,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)

	cleared, err := f.svc.UpdateStatusNotes(f.ctx, domain.UpdateStatusNotesRequest{
		RepresentingCountryID: countryID,
		StatusID:              cas.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.Notes)
}

func TestOwnershipIsEnforcedAcrossCountries(t *testing.T) {
	f := newFixture(t)
	canada := f.seededCountry("CA")
	australia := f.seededCountry("AU")

	foreign := f.statusByName(australia, "Visa Applied")
	_, err := f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{
		RepresentingCountryID: australia,
		StatusID:              foreign.ID,
		Name:                  "Biometrics",
	})
	require.NoError(t, err)
	foreignSub := f.list(australia)[foreign.Order-1].SubStatuses[0]

	ref := domain.StatusRef{RepresentingCountryID: canada, StatusID: foreign.ID}
	subRef := domain.SubStatusRef{RepresentingCountryID: canada, StatusID: foreign.ID, SubStatusID: foreignSub.ID}

	_, err = f.svc.RenameStatus(f.ctx, domain.RenameStatusRequest{RepresentingCountryID: canada, StatusID: foreign.ID, CustomName: "x"})
	assert.ErrorIs(t, err, domain.ErrStatusNotFound)
	_, err = f.svc.UpdateStatusNotes(f.ctx, domain.UpdateStatusNotesRequest{RepresentingCountryID: canada, StatusID: foreign.ID})
	assert.ErrorIs(t, err, domain.ErrStatusNotFound)
	_, err = f.svc.ToggleStatusActive(f.ctx, ref)
	assert.ErrorIs(t, err, domain.ErrStatusNotFound)
	assert.ErrorIs(t, f.svc.DeleteStatus(f.ctx, ref), domain.ErrStatusNotFound)
	_, err = f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{RepresentingCountryID: canada, StatusID: foreign.ID, Name: "Medical"})
	assert.ErrorIs(t, err, domain.ErrStatusNotFound)
	_, err = f.svc.EditSubStatus(f.ctx, domain.EditSubStatusRequest{RepresentingCountryID: canada, StatusID: foreign.ID, SubStatusID: foreignSub.ID, Name: "y"})
	assert.ErrorIs(t, err, domain.ErrStatusNotFound)
	_, err = f.svc.ToggleSubStatusActive(f.ctx, subRef)
	assert.ErrorIs(t, err, domain.ErrStatusNotFound)
	assert.ErrorIs(t, f.svc.DeleteSubStatus(f.ctx, subRef), domain.ErrStatusNotFound)

	after := f.statusByName(australia, "Visa Applied")
	assert.Nil(t, after.CustomName)
	assert.True(t, after.IsActive)
	step := f.list(australia)[after.Order-1]
	require.Len(t, step.SubStatuses, 1)
	assert.Equal(t, "Biometrics", step.SubStatuses[0].Name)
	assert.True(t, step.SubStatuses[0].IsActive)
}

func TestSubStatusMustBelongToStatus(t *testing.T) {
	f := newFixture(t)
	countryID := f.seededCountry("CA")
	visa := f.statusByName(countryID, "Visa Applied")
	cas := f.statusByName(countryID, "CAS Issued")

	sub, err := f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{RepresentingCountryID: countryID, StatusID: visa.ID, Name: "Biometrics"})
	require.NoError(t, err)

	_, err = f.svc.EditSubStatus(f.ctx, domain.EditSubStatusRequest{
		RepresentingCountryID: countryID,
		StatusID:              cas.ID,
		SubStatusID:           sub.ID,
		Name:                  "Moved",
	})
	assert.ErrorIs(t, err, domain.ErrSubStatusNotFound)

	err = f.svc.DeleteSubStatus(f.ctx, domain.SubStatusRef{RepresentingCountryID: countryID, StatusID: cas.ID, SubStatusID: sub.ID})
	assert.ErrorIs(t, err, domain.ErrSubStatusNotFound)
}

func TestOrganizationsAreIsolated(t *testing.T) {
	f := newFixture(t, "New", "A")
	ours := f.seededCountry("CA")
	theirs := f.createCountry(2002, "CA")
	otherCtx := orgcontext.WithOrgID(context.Background(), 2002)
	_, err := f.svc.SeedWorkflow(otherCtx, theirs)
	require.NoError(t, err)

	_, err = f.svc.ListWorkflow(f.ctx, theirs, domain.ListWorkflowRequest{})
	assert.ErrorIs(t, err, domain.ErrRepresentingCountryNotFound)

	theirA, err := f.svc.ListWorkflow(otherCtx, theirs, domain.ListWorkflowRequest{})
	require.NoError(t, err)
	_, err = f.svc.ReorderStatuses(f.ctx, domain.ReorderRequest{
		RepresentingCountryID: ours,
		Orders:                []domain.StatusOrder{{ID: theirA[1].Status.ID, Order: 7}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusID)

	_, err = f.svc.ListWorkflow(context.Background(), ours, domain.ListWorkflowRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestSubStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	countryID := f.seededCountry("CA")
	visa := f.statusByName(countryID, "Visa Applied")
	ref := func(id string) domain.SubStatusRef {
		return domain.SubStatusRef{RepresentingCountryID: countryID, StatusID: visa.ID, SubStatusID: id}
	}

	description := "  Book at the nearest VAC  "
	first, err := f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{
		RepresentingCountryID: countryID,
		StatusID:              visa.ID,
		Name:                  "Biometrics",
		Description:           &description,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Order)
	require.NotNil(t, first.Description)
	assert.Equal(t, "Book at the nearest VAC", *first.Description)

	second, err := f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{RepresentingCountryID: countryID, StatusID: visa.ID, Name: "Medical"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Order)

	_, err = f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{RepresentingCountryID: countryID, StatusID: visa.ID, Name: "Medical"})
	assert.ErrorIs(t, err, domain.ErrDuplicateSubStatusName)

	_, err = f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{RepresentingCountryID: countryID, StatusID: visa.ID, Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidSubStatusName)

	// The same name is fine under another status.
	cas := f.statusByName(countryID, "CAS Issued")
	_, err = f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{RepresentingCountryID: countryID, StatusID: cas.ID, Name: "Medical"})
	require.NoError(t, err)

	_, err = f.svc.EditSubStatus(f.ctx, domain.EditSubStatusRequest{
		RepresentingCountryID: countryID, StatusID: visa.ID, SubStatusID: second.ID, Name: "Biometrics",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateSubStatusName)

	edited, err := f.svc.EditSubStatus(f.ctx, domain.EditSubStatusRequest{
		RepresentingCountryID: countryID, StatusID: visa.ID, SubStatusID: first.ID, Name: "Biometrics",
	})
	require.NoError(t, err)
	assert.Nil(t, edited.Description)

	toggled, err := f.svc.ToggleSubStatusActive(f.ctx, ref(second.ID))
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	active, err := f.svc.ListWorkflow(f.ctx, countryID, domain.ListWorkflowRequest{ActiveOnly: true})
	require.NoError(t, err)
	for _, step := range active {
		if step.Status.ID == visa.ID {
			require.Len(t, step.SubStatuses, 1)
			assert.Equal(t, "Biometrics", step.SubStatuses[0].Name)
		}
	}

	require.NoError(t, f.svc.DeleteSubStatus(f.ctx, ref(first.ID)))
	assert.ErrorIs(t, f.svc.DeleteSubStatus(f.ctx, ref(first.ID)), domain.ErrSubStatusNotFound)

	step := f.list(countryID)[visa.Order-1]
	require.Len(t, step.SubStatuses, 1)
	assert.Equal(t, "Medical", step.SubStatuses[0].Name)

	readded, err := f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{RepresentingCountryID: countryID, StatusID: visa.ID, Name: "Biometrics"})
	require.NoError(t, err)
	assert.Equal(t, 2, readded.Order)
}

func TestListWorkflowActiveOnlyHidesInactiveStatuses(t *testing.T) {
	f := newFixture(t, "New", "A", "B")
	countryID := f.seededCountry("CA")
	a := f.statusByName(countryID, "A")

	_, err := f.svc.ToggleStatusActive(f.ctx, domain.StatusRef{RepresentingCountryID: countryID, StatusID: a.ID})
	require.NoError(t, err)

	active, err := f.svc.ListWorkflow(f.ctx, countryID, domain.ListWorkflowRequest{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"New", "B"}, names(active))
	assert.Len(t, f.list(countryID), 3)
}

func TestMutationsInvalidateCachedListing(t *testing.T) {
	f := newFixture(t, "New", "A")
	countryID := f.seededCountry("CA")

	first := f.list(countryID)
	_, cached := f.cache.Get(f.ctx, testOrgID.String(), countryID)
	require.True(t, cached)

	_, err := f.svc.RenameStatus(f.ctx, domain.RenameStatusRequest{
		RepresentingCountryID: countryID,
		StatusID:              first[1].Status.ID,
		CustomName:            "Renamed",
	})
	require.NoError(t, err)
	_, cached = f.cache.Get(f.ctx, testOrgID.String(), countryID)
	assert.False(t, cached)

	assert.Equal(t, "Renamed", f.list(countryID)[1].Status.DisplayName)
}

func TestBackfillAllSeedsEveryCountry(t *testing.T) {
	f := newFixture(t, "New", "A", "B")
	f.createCountry(testOrgID, "CA")
	f.createCountry(testOrgID, "AU")
	f.createCountry(2002, "GB")

	result, err := f.svc.BackfillAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Countries)
	assert.Equal(t, 9, result.Created)

	result, err = f.svc.BackfillAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Countries)
	assert.Zero(t, result.Created)
	assert.Zero(t, result.Reordered)
}

func TestDeleteAllInTx(t *testing.T) {
	f := newFixture(t, "New", "A")
	countryID := f.seededCountry("CA")
	a := f.statusByName(countryID, "A")
	_, err := f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{RepresentingCountryID: countryID, StatusID: a.ID, Name: "Step"})
	require.NoError(t, err)

	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.DeleteAllInTx(f.ctx, tx, testOrgID, mustID(t, countryID))
	}))

	var statuses, subs int64
	require.NoError(t, f.db.Model(&domain.Status{}).Count(&statuses).Error)
	require.NoError(t, f.db.Model(&domain.SubStatus{}).Count(&subs).Error)
	assert.Zero(t, statuses)
	assert.Zero(t, subs)

	require.NoError(t, f.db.Unscoped().Model(&domain.SubStatus{}).Count(&subs).Error)
	assert.EqualValues(t, 1, subs)
}

func TestCanadaWorkflowScenario(t *testing.T) {
	f := newFixture(t)
	canada := f.seededCountry("CA")
	catalog := catalogNames()

	seeded := f.list(canada)
	require.Len(t, seeded, 12)

	scholarship, err := f.svc.AddStatus(f.ctx, domain.AddStatusRequest{RepresentingCountryID: canada, StatusName: "Scholarship Review"})
	require.NoError(t, err)
	assert.Equal(t, 13, scholarship.Order)

	stepFive := seeded[4].Status
	gpa, err := f.svc.AddSubStatus(f.ctx, domain.AddSubStatusRequest{
		RepresentingCountryID: canada,
		StatusID:              stepFive.ID,
		Name:                  "Verify GPA",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, gpa.Order)

	toggled, err := f.svc.ToggleStatusActive(f.ctx, domain.StatusRef{RepresentingCountryID: canada, StatusID: stepFive.ID})
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	// Reverse steps 2..12; the payload also tries to move "New".
	payload := []domain.StatusOrder{{ID: seeded[0].Status.ID, Order: 12}}
	for position := 2; position <= 12; position++ {
		payload = append(payload, domain.StatusOrder{ID: seeded[position-1].Status.ID, Order: 14 - position})
	}
	workflow, err := f.svc.ReorderStatuses(f.ctx, domain.ReorderRequest{RepresentingCountryID: canada, Orders: payload})
	require.NoError(t, err)

	expected := []string{catalog[0]}
	for i := 11; i >= 1; i-- {
		expected = append(expected, catalog[i])
	}
	expected = append(expected, "Scholarship Review")

	require.Len(t, workflow, 13)
	assert.Equal(t, expected, names(workflow))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}, orders(workflow))

	for _, step := range workflow {
		if step.Status.ID == stepFive.ID {
			assert.Equal(t, 9, step.Status.Order)
			assert.False(t, step.Status.IsActive)
			require.Len(t, step.SubStatuses, 1)
			assert.Equal(t, "Verify GPA", step.SubStatuses[0].Name)
			continue
		}
		assert.True(t, step.Status.IsActive, step.Status.StatusName)
		assert.Empty(t, step.SubStatuses)
	}
	assert.Equal(t, f.list(canada), workflow)
}

func mustID(t *testing.T, raw string) snowflake.ID {
	t.Helper()
	id, ok := orgcontext.ParseID(raw)
	require.True(t, ok)
	return id
}
