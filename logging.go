package deco

import "github.com/sirupsen/logrus"

// Logger is the package-level diagnostic logger, used for travel-gas patch
// decisions, deco-gas switches and InfiniteDeco warnings. Never consulted
// for control flow; every condition it logs is also returned as an error or
// reflected in the dive's output. Overridable via SetLogger, the same
// package-level-logger pattern the pack's one dependency-bearing repo uses
// for its simulation loop.
var Logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the package-level logger, e.g. to attach request-scoped
// fields from an HTTP collaborator.
func SetLogger(l logrus.FieldLogger) {
	Logger = l
}
