package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/intercede-dev/intercede/internal/domain/auditlog"
	"github.com/intercede-dev/intercede/internal/domain/operation"
	"github.com/intercede-dev/intercede/internal/domain/values"
)

// SARIFFormatter formats an audit trail as SARIF 2.1.0 JSON, one result
// per entry with the operation kind as the rule. Not part of the
// capability's own export surface; used by the CLI converter so audit
// trails can feed SARIF-consuming review tooling.
type SARIFFormatter struct {
	writer  io.Writer
	version string
}

// NewSARIFFormatter creates a new SARIF formatter. version is stamped
// into the tool.driver metadata.
func NewSARIFFormatter(writer io.Writer, version string) *SARIFFormatter {
	return &SARIFFormatter{
		writer:  writer,
		version: version,
	}
}

// Format writes the entries as a SARIF report.
func (f *SARIFFormatter) Format(entries []auditlog.Entry) error {
	report := sarif.NewReport()

	run := sarif.NewRunWithInformationURI("intercede", "https://github.com/intercede-dev/intercede")
	if f.version != "" {
		run.Tool.Driver.Version = &f.version
	}

	f.addRules(run, entries)
	f.addResults(run, entries)

	report.AddRun(run)
	if err := report.Write(f.writer); err != nil {
		return fmt.Errorf("failed to write SARIF output: %w", err)
	}
	_, err := f.writer.Write([]byte("\n"))
	return err
}

// addRules emits one rule per operation kind present in the trail.
func (f *SARIFFormatter) addRules(run *sarif.Run, entries []auditlog.Entry) {
	seen := make(map[operation.Kind]bool)
	for _, e := range entries {
		if seen[e.OperationKind] {
			continue
		}
		seen[e.OperationKind] = true

		name := fmt.Sprintf("Mediated %s operation", e.OperationKind)
		rule := sarif.NewReportingDescriptor().WithID(string(e.OperationKind))
		rule.WithName(name)
		rule.WithShortDescription(&sarif.MultiformatMessageString{Text: &name})

		props := sarif.NewPropertyBag()
		props.Add("intent", string(e.Intent))
		rule.WithProperties(props)

		run.Tool.Driver.AddRule(rule)
	}
}

// addResults emits one result per entry.
func (f *SARIFFormatter) addResults(run *sarif.Run, entries []auditlog.Entry) {
	for _, e := range entries {
		result := sarif.NewRuleResult(string(e.OperationKind))
		result.Level = mapStatusToLevel(e.Status)
		result.Message = sarif.NewTextMessage(FormatEntryLine(e))

		props := sarif.NewPropertyBag()
		props.Add("index", e.Index)
		props.Add("intent", string(e.Intent))
		props.Add("status", string(e.Status))
		if e.PropertyKey != "" {
			props.Add("propertyKey", e.PropertyKey)
		}
		if e.Reason != "" {
			props.Add("reason", e.Reason)
		}
		result.WithProperties(props)

		run.AddResult(result)
	}
}

func mapStatusToLevel(status values.Status) string {
	switch status {
	case values.StatusError:
		return "error"
	case values.StatusDenied:
		return "warning"
	default:
		return "note"
	}
}
