// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ecole-go/internal/api"
	"github.com/olegiv/ecole-go/internal/model"
	"github.com/olegiv/ecole-go/internal/portal"
)

const deletePath = "/admin/sheets/" + testSheetID + "/delete"

func TestAdminDelete_ConfirmationPage(t *testing.T) {
	e := newTestEnv(t)
	e.api.sheets = []model.Sheet{testSheet}
	e.signIn(testAdmin)

	rec := e.get(deletePath)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Les fractions")
	assert.Contains(t, body, `name="confirm" value="yes"`)
	assert.Contains(t, body, `name="confirm" value="no"`)
	assert.Equal(t, 0, e.api.count("delete"), "showing the confirmation must not delete")
}

func TestAdminDelete_Cancelled(t *testing.T) {
	e := newTestEnv(t)
	e.api.sheets = []model.Sheet{testSheet}
	e.signIn(testAdmin)

	rec := e.post(deletePath, url.Values{formConfirm: {"no"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, RouteAdmin, rec.Header().Get("Location"))
	assert.Equal(t, 0, e.api.count("delete"))
	assert.Equal(t, 0, e.api.count("admin_sheets"), "cancelling must not reload the list")

	rec = e.get(RouteAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Suppression annulée")
	assert.Contains(t, rec.Body.String(), "Les fractions")
}

func TestAdminDelete_MissingConfirmCancels(t *testing.T) {
	e := newTestEnv(t)
	e.api.sheets = []model.Sheet{testSheet}
	e.signIn(testAdmin)

	rec := e.post(deletePath, url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, e.api.count("delete"))
}

func TestAdminDelete_Confirmed(t *testing.T) {
	e := newTestEnv(t)
	e.api.sheets = []model.Sheet{testSheet}
	e.signIn(testAdmin)

	rec := e.post(deletePath, url.Values{formConfirm: {formConfirmYes}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, RouteAdmin, rec.Header().Get("Location"))
	assert.Equal(t, []string{testSheetID}, e.api.deleted)
	// The list is fetched again after the deletion.
	assert.Equal(t, 1, e.api.count("admin_sheets"))

	rec = e.get(RouteAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fiche supprimée avec succès!")
	assert.NotContains(t, rec.Body.String(), "Les fractions")
}

func TestAdminDelete_NotFound(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"not a uuid", "/admin/sheets/42/delete"},
		{"unknown sheet", "/admin/sheets/9b2f0a3c-1d4e-4f5a-8b6c-7d8e9f0a1b2c/delete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.api.sheets = []model.Sheet{testSheet}
			e.signIn(testAdmin)

			rec := e.get(tt.path)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}

	e := newTestEnv(t)
	e.signIn(testAdmin)
	rec := e.post("/admin/sheets/42/delete", url.Values{formConfirm: {formConfirmYes}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, e.api.count("delete"))
}

func TestAdmin_NonAdminForbidden(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(testParent)

	rec := e.get(RouteAdmin)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.post(deletePath, url.Values{formConfirm: {formConfirmYes}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, e.api.count("delete"))
	assert.Equal(t, 0, e.api.count("stats"))
}

func TestAdmin_DashboardShowsEvents(t *testing.T) {
	e := newTestEnv(t)
	e.api.sheets = []model.Sheet{testSheet}
	_, _ = e.events.CreateEvent(t.Context(), eventParams("admin reset shortcut used"))
	e.signIn(testAdmin)

	rec := e.get(RouteAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin reset shortcut used")
	assert.Equal(t, 1, e.api.count("stats"))
	assert.Equal(t, 1, e.api.count("admin_sheets"))
}

func sheetFields(title string) [][2]string {
	return [][2]string{
		{"title", title},
		{"description", "Exercices de CM1"},
		{"level", string(model.LevelCM1)},
		{"subject", string(model.SubjectMaths)},
		{"is_premium", "on"},
	}
}

func TestAdminCreateSheet_LargePDFAccepted(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(testAdmin)

	size := 10 << 20
	rec := e.postFile(RouteAdminSheets, sheetFields("Les fractions"), "file", "fractions.pdf", pdfOfSize(size))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, RouteAdmin, rec.Header().Get("Location"))

	require.Equal(t, 1, e.api.count("create"))
	assert.Equal(t, []int64{int64(size)}, e.api.createdSizes)
	got := e.api.created[0]
	assert.Equal(t, "Les fractions", got.Title)
	assert.True(t, got.IsPremium)
	assert.False(t, got.IsTeacherOnly)
	assert.Equal(t, 1, e.api.count("admin_sheets"), "the list is fetched again after a create")

	rec = e.get(RouteAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fiche créée avec succès!")
	assert.Contains(t, rec.Body.String(), "20 Mo")
}

func TestAdminCreateSheet_FailureKeepsForm(t *testing.T) {
	e := newTestEnv(t)
	e.api.createErr = &api.Error{Operation: "create_sheet", StatusCode: http.StatusInternalServerError}
	e.signIn(testAdmin)

	rec := e.postFile(RouteAdminSheets, sheetFields("Les fractions"), "file", "fractions.pdf", pdfOfSize(1024))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, e.api.count("create"))

	rec = e.get(RouteAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Erreur lors de la création de la fiche")
	assert.Contains(t, body, `value="Les fractions"`)
	assert.Contains(t, body, "Exercices de CM1")
}

func TestAdminCreateSheet_TooLargeKeepsForm(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(testAdmin)

	rec := e.postFile(RouteAdminSheets, sheetFields("Trop lourde"), "file", "lourde.pdf", pdfOfSize(portal.MaxSheetFileSize+1))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, RouteAdmin, rec.Header().Get("Location"))
	assert.Equal(t, 0, e.api.count("create"))

	rec = e.get(RouteAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Le fichier dépasse la taille maximale de 20 Mo")
	assert.Contains(t, body, `value="Trop lourde"`)
}

func TestAdminResetPassword_NoticeNamesEmail(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(testAdmin)

	rec := e.post(RouteAdminResetPassword, url.Values{
		"email":        {"lea@example.com"},
		"new_password": {"secret1"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, RouteAdmin, rec.Header().Get("Location"))
	assert.Equal(t, []string{"lea@example.com"}, e.api.resetEmails)

	rec = e.get(RouteAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mot de passe réinitialisé pour lea@example.com")
}
