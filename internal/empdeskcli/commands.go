package empdeskcli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phillip-england/empdesk/internal/controller"
	"github.com/phillip-england/empdesk/internal/sheets"
)

func runList(ctx context.Context, e env) error {
	ctrl := newController()
	err := ctrl.RefreshEmployees(ctx)
	if printErr := printTable(e.out, ctrl.View().Employees); printErr != nil {
		return printErr
	}
	return err
}

func runReport(ctx context.Context, e env) error {
	ctrl := newController()
	err := ctrl.RefreshReport(ctx)
	printReport(e.out, ctrl.View().Report)
	return err
}

func runAdd(ctx context.Context, args []string, e env) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(e.out)
	name := fs.String("name", "", "employee name")
	department := fs.String("department", "", "department")
	joiningDate := fs.String("joining-date", "", "joining date, sent as typed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctrl := newController()
	ui := newTerminal(e, false)
	_, err := ctrl.AddEmployee(ctx, ui, controller.AddForm{Name: *name, Department: *department, JoiningDate: *joiningDate})
	if !changeApplied(err) {
		return err
	}
	fmt.Fprintln(e.out, "Employee added")
	warnRefresh(e.out, err)
	return printTable(e.out, ctrl.View().Employees)
}

// changeApplied reports whether the backend accepted the change, even if the
// reload that followed failed.
func changeApplied(err error) bool {
	var refreshErr *controller.RefreshError
	return err == nil || errors.As(err, &refreshErr)
}

func warnRefresh(w io.Writer, err error) {
	var refreshErr *controller.RefreshError
	if errors.As(err, &refreshErr) {
		fmt.Fprintf(w, "warning: change saved but reload failed: %v\n", refreshErr.Err)
	}
}

func runDelete(ctx context.Context, args []string, e env) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(e.out)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := singleID("delete", fs.Args())
	if err != nil {
		return err
	}

	ctrl := newController()
	ui := newTerminal(e, *yes)
	err = ctrl.Dispatch(ctx, ui, controller.Action{Kind: controller.ActionDelete, EmployeeID: id})
	if !changeApplied(err) {
		return err
	}
	if !ui.confirmed {
		return nil
	}
	fmt.Fprintf(e.out, "Employee #%s deleted\n", id)
	warnRefresh(e.out, err)
	return printTable(e.out, ctrl.View().Employees)
}

func runAttend(ctx context.Context, args []string, e env) error {
	id, err := singleID("attend", args)
	if err != nil {
		return err
	}
	ctrl := newController()
	err = ctrl.Dispatch(ctx, newTerminal(e, false), controller.Action{Kind: controller.ActionMarkAttendance, EmployeeID: id})
	if !changeApplied(err) {
		return err
	}
	warnRefresh(e.out, err)
	return nil
}

func runAttendance(ctx context.Context, args []string, e env) error {
	id, err := singleID("attendance", args)
	if err != nil {
		return err
	}
	ctrl := newController()
	return ctrl.Dispatch(ctx, newTerminal(e, false), controller.Action{Kind: controller.ActionViewAttendance, EmployeeID: id})
}

func runImport(ctx context.Context, args []string, e env) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: empdesk import <file.xls|file.xlsx>", ErrUsage)
	}
	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer file.Close()

	employees, err := sheets.ReadEmployees(file, filepath.Base(args[0]))
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	ctrl := newController()
	result, err := ctrl.ImportEmployees(ctx, newTerminal(e, false), employees, sheets.FirstDataRow)
	if !changeApplied(err) {
		return err
	}
	warnRefresh(e.out, err)
	if len(result.Failures) > 0 {
		return fmt.Errorf("%d of %d rows failed", len(result.Failures), len(employees))
	}
	return nil
}

func runExport(ctx context.Context, args []string, e env) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: empdesk export <file.xlsx>", ErrUsage)
	}
	ctrl := newController()
	snapshot, err := ctrl.Snapshot(ctx)
	if err != nil {
		return err
	}

	tmpPath := args[0] + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmpPath, err)
	}
	if err := sheets.WriteWorkbook(file, snapshot.Employees, snapshot.Attendance, snapshot.Report); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, args[0]); err != nil {
		return fmt.Errorf("install %s: %w", args[0], err)
	}
	fmt.Fprintf(e.out, "wrote %s (%d employees, %d attendance records)\n", args[0], len(snapshot.Employees), len(snapshot.Attendance))
	return nil
}
