package integration

import (
	"fmt"

	"github.com/cucumber/godog"

	"github.com/acgn-assistant/acgn-assistant/pkg/admin"
	"github.com/acgn-assistant/acgn-assistant/pkg/audit"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
	gormstore "github.com/acgn-assistant/acgn-assistant/pkg/server/store/gorm"
)

func registerAdminSteps(sc *godog.ScenarioContext, s *StepsContext) {
	sc.Step(`^the bootstrap admin exists$`, s.theBootstrapAdminExists)
	sc.Step(`^I log in as the bootstrap admin$`, s.iLogInAsTheBootstrapAdmin)
	sc.Step(`^the audit log should contain (\d+) "([^"]*)" entr(?:y|ies)$`, s.theAuditLogShouldContain)
}

// theBootstrapAdminExists runs the same check "acgnctl admin bootstrap"
// and the server start do, directly against the test database
func (s *StepsContext) theBootstrapAdminExists() error {
	_, err := admin.EnsureAdmin(gormstore.NewUsersStore(s.tc.DB), testConfig(s.tc.DatabaseURL), audit.New(nil, audit.NewStore(s.tc.DB), nil))
	return err
}

func (s *StepsContext) iLogInAsTheBootstrapAdmin() error {
	return s.iLogIn(adminEmail, adminPassword)
}

func (s *StepsContext) theAuditLogShouldContain(n int, action string) error {
	logs, err := gormstore.NewAuditLogsStore(s.tc.DB).ListAuditLogs(store.AuditLogFilter{Action: action, Limit: 200})
	if err != nil {
		return err
	}
	if len(logs) != n {
		return fmt.Errorf("expected %d %s entries, got %d", n, action, len(logs))
	}
	return nil
}
