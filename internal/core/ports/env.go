package ports

// EnvLookup is the environment of the current build invocation.
//
//go:generate go run go.uber.org/mock/mockgen -source=env.go -destination=mocks/mock_env.go -package=mocks
type EnvLookup interface {
	// LookupEnv returns the value of name and whether it is set.
	LookupEnv(name string) (string, bool)
}
