package healing

import "fmt"

var repairTasks = map[ErrorKind]string{
	KindSyntax:  "TASK: Fix the syntax error. Check indentation, colons, and brackets.",
	KindImport:  "TASK: Fix the import error. Ensure standard libraries are used or mock external deps.",
	KindLogic:   "TASK: Fix the logic error. The output did not match the expectation.",
	KindTimeout: "TASK: Optimize the code or break it into smaller chunks to avoid timeouts.",
	KindUnknown: "TASK: Analyze the trace and fix the code in a safe and minimal way.",
}

// RepairPrompt renders the fix instruction for one error kind, embedding the
// offending code and the failure log.
func RepairPrompt(kind ErrorKind, code, errorLog string) string {
	task, ok := repairTasks[kind]
	if !ok {
		task = repairTasks[KindUnknown]
	}
	return fmt.Sprintf("Here is the code:\n```\n%s\n```\n\nHere is the error:\n%s\n\n%s", code, errorLog, task)
}
