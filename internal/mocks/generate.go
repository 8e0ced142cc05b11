// Package mocks provides mock implementations for testing the checking queue.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the core ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockSubmissionRepository(ctrl)
//	repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return([]int64{1}, nil)
package mocks

//go:generate mockgen -package=mocks -destination=submission_repository_mock.go github.com/target/checkqueue/internal/core SubmissionRepository
//go:generate mockgen -package=mocks -destination=text_store_mock.go github.com/target/checkqueue/internal/core TextStore
//go:generate mockgen -package=mocks -destination=course_catalog_mock.go github.com/target/checkqueue/internal/core CourseCatalog
//go:generate mockgen -package=mocks -destination=skip_checker_mock.go github.com/target/checkqueue/internal/core SkipChecker
//go:generate mockgen -package=mocks -destination=handled_publisher_mock.go github.com/target/checkqueue/internal/core HandledPublisher
//go:generate mockgen -package=mocks -destination=job_notifier_mock.go github.com/target/checkqueue/internal/core JobNotifier
//go:generate mockgen -package=mocks -destination=cache_repository_mock.go github.com/target/checkqueue/internal/core CacheRepository
