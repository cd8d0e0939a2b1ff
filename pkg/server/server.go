// Package server exposes the stores over a local JSON HTTP API. It is a
// thin surface: handlers decode, call a store and encode. The one piece
// of coordination it owns is the single-flight guard around recurring
// processing, which the engine itself deliberately does not provide.
package server

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/analytics"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/backup"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/catalog"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/csvio"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/recurring"
)

// Server wires the stores into an HTTP router.
type Server struct {
	accounts   *ledger.AccountStore
	ledger     *ledger.Service
	recurring  *recurring.Engine
	categories *catalog.CategoryStore
	payees     *catalog.PayeeStore
	projects   *catalog.ProjectStore
	reporter   *analytics.Reporter
	exporter   *csvio.Exporter
	importer   *csvio.Importer
	backups    *backup.Manager
	settings   *db.Settings

	// processMu serializes process-due invocations; two overlapping runs
	// against the same definition could double-materialize.
	processMu sync.Mutex
}

// New creates a Server over an open database connection.
func New(conn *db.Connection, backupDir string, maxBackups int) *Server {
	accounts := ledger.NewAccountStore(conn)
	service := ledger.NewService(conn)

	return &Server{
		accounts:   accounts,
		ledger:     service,
		recurring:  recurring.NewEngine(conn, service, accounts),
		categories: catalog.NewCategoryStore(conn),
		payees:     catalog.NewPayeeStore(conn),
		projects:   catalog.NewProjectStore(conn),
		reporter:   analytics.NewReporter(conn),
		exporter:   csvio.NewExporter(conn),
		importer:   csvio.NewImporter(accounts, service),
		backups:    backup.NewManager(conn, backupDir, maxBackups),
		settings:   db.NewSettings(conn),
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.listAccounts)
			r.Post("/", s.createAccount)
			r.Put("/{id}", s.updateAccount)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.listTransactions)
			r.Post("/", s.createTransaction)
			r.Put("/{id}", s.updateTransaction)
			r.Delete("/{id}", s.deleteTransaction)
		})
		r.Post("/transfers", s.createTransfer)

		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", s.listRecurring)
			r.Post("/", s.createRecurring)
			r.Post("/{id}/deactivate", s.deactivateRecurring)
			r.Post("/process", s.processRecurring)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.listCategories)
			r.Post("/", s.createCategory)
		})
		r.Route("/payees", func(r chi.Router) {
			r.Get("/", s.listPayees)
			r.Post("/", s.createPayee)
		})
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.listProjects)
			r.Post("/", s.createProject)
			r.Put("/{id}", s.updateProject)
			r.Delete("/{id}", s.deleteProject)
			r.Get("/{id}/analytics", s.projectAnalytics)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/stats", s.stats)
			r.Get("/category-spending", s.categorySpending)
			r.Get("/monthly-trend", s.monthlyTrend)
		})

		r.Get("/export/csv", s.exportCSV)
		r.Post("/import/csv", s.importCSV)

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", s.listBackups)
			r.Post("/", s.createBackup)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.listSettings)
			r.Put("/{key}", s.putSetting)
		})
	})

	return r
}
