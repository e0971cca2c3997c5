// Package mocks provides mock implementations for testing the export job runner.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the core ports.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockJobStore(ctrl)
//	store.EXPECT().Load(gomock.Any()).Return(jobs, nil)
package mocks

// Generate mock for DataSourceClient interface from internal/core package.
// This creates MockDataSourceClient with methods for all DataSourceClient interface methods:
// FindReportByName, FindViewByName, FindQuestionIDByName, FetchReport, FetchView, FetchQuestion
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=data_source_client_mock.go github.com/target/repeater/internal/core DataSourceClient

// Generate mock for Destination interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=destination_mock.go github.com/target/repeater/internal/core Destination

// Generate mock for JobStore interface from internal/core package.
// This creates MockJobStore with methods for all JobStore interface methods: Load, Save
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_store_mock.go github.com/target/repeater/internal/core JobStore

// Generate mock for ObjectUploader interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=object_uploader_mock.go github.com/target/repeater/internal/core ObjectUploader

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Set, Get, Delete, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/repeater/internal/core CacheRepository
