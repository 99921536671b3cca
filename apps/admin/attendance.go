package main

import (
	"context"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
)

func (cli *commandLine) addStudent(ctx context.Context, prn, name, email string) error {
	ns := student.NewStudent{PRN: prn, Name: name, Email: email}
	if err := ns.Validate(cli.validate); err != nil {
		return err
	}
	std, err := cli.stdSvc.Create(ctx, ns)
	if err != nil {
		return err
	}
	logger.Printf("student %s (%s) registered", std.PRN, std.Name)
	return nil
}

func (cli *commandLine) setZone(ctx context.Context, lat, lng, radius float64) error {
	uz := attendance.UpdateZone{Latitude: &lat, Longitude: &lng, RadiusMeters: &radius}
	if err := uz.Validate(cli.validate); err != nil {
		return err
	}
	st, err := cli.attSvc.SetZone(ctx, uz.Zone())
	if err != nil {
		return err
	}
	if !st.ZoneConfigured {
		logger.Println("warning: a zone centered on (0,0) is treated as not configured")
	}
	return nil
}

func (cli *commandLine) setWindow(ctx context.Context, open bool) error {
	_, err := cli.attSvc.SetWindow(ctx, open)
	return err
}

func (cli *commandLine) clearRecords(ctx context.Context) error {
	n, err := cli.attSvc.ClearAttempts(ctx)
	if err != nil {
		return err
	}
	logger.Printf("%d check-in attempts deleted", n)
	return nil
}
