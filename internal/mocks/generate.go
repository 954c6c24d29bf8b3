package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Fetcher --dir ../domain/gains --output domain/gains --outpkg gainsmock --filename fetcher_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Source --dir ../domain/gains --output domain/gains --outpkg gainsmock --filename source_mock.go
