package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflow-service/internal/conversion"
	"userflow-service/internal/models"
)

type captureCompiler struct {
	available bool
	err       error
	source    string
	assets    map[string][]byte
}

func (c *captureCompiler) Available() bool { return c.available }

func (c *captureCompiler) Compile(_ context.Context, source []byte, assets map[string][]byte) ([]byte, error) {
	c.source = string(source)
	c.assets = assets
	if c.err != nil {
		return nil, c.err
	}
	return []byte("%PDF-1.7"), nil
}

func TestExportService_RendersDocument(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, alice)
	p.Name = "Shop [beta] #2"
	require.NoError(t, f.repos.Projects.Update(p))

	checkout := f.flow(t, p.ID, "Checkout")
	cart := f.screen(t, checkout.ID, "Cart")
	cart.ScreenshotKey = "screens/cart.jpg"
	cart.Notes = "Totals use $ prices"
	require.NoError(t, f.repos.Screens.Update(cart))
	f.screen(t, checkout.ID, "Payment")

	sub := &models.Flow{ProjectID: p.ID, Name: "Coupon", OrderIndex: 5, ParentFlowID: &checkout.ID}
	require.NoError(t, f.repos.Flows.Create(sub))
	f.screen(t, sub.ID, "Apply code")
	f.flow(t, p.ID, "Empty")

	store := newMemStore()
	store.objects["screens/cart.jpg"] = []byte("jpeg-bytes")
	compiler := &captureCompiler{available: true}
	svc := NewExportService(f.repos, store, compiler)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC) }

	pdf, name, err := svc.ExportProjectPDF(context.Background(), alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
	assert.Equal(t, "Shop__beta___2_flow.pdf", name)

	src := compiler.source
	assert.Contains(t, src, `Shop \[beta\] \#2`)
	assert.Contains(t, src, "Generated on May 4, 2026")
	assert.Contains(t, src, "3 Flows • 3 Screens")
	assert.Contains(t, src, "1. Checkout (2 screens)")
	assert.Contains(t, src, "2. Coupon from Checkout (1 screen)")
	assert.Contains(t, src, `*Coupon* from *Checkout*`)
	assert.Contains(t, src, `Totals use \$ prices`)
	assert.Contains(t, src, `#image("images/img_0.jpg"`)
	assert.Contains(t, src, "No Screenshot")
	assert.NotContains(t, src, "Empty")
	assert.True(t, strings.Index(src, "Cart") < strings.Index(src, "Payment"))
	assert.Equal(t, map[string][]byte{"images/img_0.jpg": []byte("jpeg-bytes")}, compiler.assets)
}

func TestExportService_Errors(t *testing.T) {
	f := newFixture(t)
	p, _, _ := f.tree(t, alice)
	ctx := context.Background()

	_, _, err := NewExportService(f.repos, nil, &captureCompiler{available: false}).ExportProjectPDF(ctx, alice, p.ID)
	var nc *NotConfiguredError
	assert.ErrorAs(t, err, &nc)

	_, _, err = NewExportService(f.repos, nil, &captureCompiler{available: true}).ExportProjectPDF(ctx, bob, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = NewExportService(f.repos, nil, &captureCompiler{available: true, err: conversion.ErrCompilerMissing}).ExportProjectPDF(ctx, alice, p.ID)
	assert.ErrorAs(t, err, &nc)

	boom := errors.New("exit status 1: error: unknown font")
	_, _, err = NewExportService(f.repos, nil, &captureCompiler{available: true, err: boom}).ExportProjectPDF(ctx, alice, p.ID)
	assert.ErrorIs(t, err, boom)
}

func TestSortFlowsHierarchically(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	flows := []models.Flow{
		{ID: c, Name: "child of a", OrderIndex: 2, ParentFlowID: &a},
		{ID: b, Name: "b", OrderIndex: 1},
		{ID: a, Name: "a", OrderIndex: 0},
		{ID: d, Name: "orphan", OrderIndex: 3, ParentFlowID: ptr(uuid.New())},
	}
	var names []string
	for _, f := range sortFlowsHierarchically(flows) {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a", "child of a", "b", "orphan"}, names)
}

func TestEscapeTypst(t *testing.T) {
	cases := map[string]string{
		"plain text":            "plain text",
		"ping @ana // later":    `ping \@ana \/\/ later`,
		"/* draft */":           `\/\* draft \*\/`,
		"<label> and `code`":    "\\<label\\> and \\`code\\`",
		"snake_case ~ 5*3":      `snake\_case \~ 5\*3`,
		`C:\path [x] #1 $2 "q"`: `C:\\path \[x\] \#1 \$2 \"q\"`,
	}
	for in, want := range cases {
		assert.Equal(t, want, escapeTypst(in), in)
	}
}

func TestExportService_EscapesNotes(t *testing.T) {
	f := newFixture(t)
	p, _, sc := f.tree(t, alice)
	sc.Notes = "ping @ana // later"
	require.NoError(t, f.repos.Screens.Update(sc))

	compiler := &captureCompiler{available: true}
	_, _, err := NewExportService(f.repos, newMemStore(), compiler).ExportProjectPDF(context.Background(), alice, p.ID)
	require.NoError(t, err)

	assert.Contains(t, compiler.source, `ping \@ana \/\/ later`)
	assert.NotContains(t, compiler.source, "@ana //")
}
