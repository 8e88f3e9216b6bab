// Package mocks provides mock implementations for testing the retrack engine.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core port interfaces. The generated file is checked in; regenerate it
// after interface changes with:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	trackers := mocks.NewMockTrackerRepository(ctrl)
//	trackers.EXPECT().Get(gomock.Any(), id).Return(tracker, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen -source=../core/interfaces.go -destination=core_mocks.go -package=mocks
