// Package platform answers multi-tenant platform activation checks and
// hosts the advisory diagnostics tied to them. Nothing here affects
// data correctness; the warnings are side-channel text only.
package platform

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/colgrid/colgrid/pkg/logger"
)

const (
	// EnvProjectPlatform activates project-platform mode.
	EnvProjectPlatform = "COLGRID_PROJECT_PLATFORM"
	// EnvRequireUserAuth enables per-user authentication checks.
	EnvRequireUserAuth = "COLGRID_REQUIRE_USER_AUTH"
)

// UserProjectPlatformActivated reports whether the process runs in
// project-platform mode with user authentication enabled.
func UserProjectPlatformActivated() bool {
	return envBool(EnvProjectPlatform) && envBool(EnvRequireUserAuth)
}

func envBool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}

// WarnMissingRepoPath warns when repoPath is absent while the
// user-project platform is activated. The warning names the calling
// function when the frame lookup succeeds and falls back to a generic
// message when it does not. It never fails and never changes behavior.
func WarnMissingRepoPath(repoPath string) {
	if repoPath != "" || !UserProjectPlatformActivated() {
		return
	}

	message := "repo_path argument must be provided."
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			message = fmt.Sprintf("repo_path argument in %s must be provided.", fn.Name())
		}
	}

	logger.Warn(message + " Some functionalities may not work as expected")
}
