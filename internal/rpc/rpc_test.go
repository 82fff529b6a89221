package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/xtding233/burst-helper/internal/controller"
	"github.com/xtding233/burst-helper/internal/host/sim"
	"github.com/xtding233/burst-helper/internal/pricing"
	"github.com/xtding233/burst-helper/internal/settings"
)

func setup(t *testing.T) (*Client, *controller.Controller, *sim.Sim) {
	t.Helper()
	h := sim.New(sim.Options{
		Units: []sim.UnitSpec{
			{Name: "Cursor", Curve: pricing.Curve{Base: 15}, PerTick: 1, Start: 1},
			{Name: "Farm", Curve: pricing.Curve{Base: 10}, PerTick: 2, Start: 6},
			{Name: "Mine", Curve: pricing.Curve{Base: 20}, PerTick: 5, Start: 2},
		},
		Bank: 1 << 30,
	})
	c := controller.New(h, settings.NewMemoryStore(), controller.Options{})

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, c)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	cl, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cl.Close() })
	return cl, c, h
}

func TestPauseResumeToggle(t *testing.T) {
	cl, c, _ := setup(t)
	ctx := context.Background()

	st, err := cl.Pause(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Fields["paused"].GetBoolValue() || !c.Paused() {
		t.Fatalf("pause: %v", st)
	}
	if st, err = cl.Toggle(ctx); err != nil || st.Fields["paused"].GetBoolValue() {
		t.Fatalf("toggle: %v %v", st, err)
	}
	if st, err = cl.Toggle(ctx); err != nil || !st.Fields["paused"].GetBoolValue() {
		t.Fatalf("toggle: %v %v", st, err)
	}
	if st, err = cl.Resume(ctx); err != nil || c.Paused() {
		t.Fatalf("resume: %v %v", st, err)
	}
}

func TestStepAdvancesOneTick(t *testing.T) {
	cl, _, h := setup(t)
	st, err := cl.Step(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if h.Ticks() != 1 || st.Fields["stepped"].GetNumberValue() != 1 {
		t.Fatalf("ticks=%d status=%v", h.Ticks(), st)
	}
}

func TestUpdateSettingsThenBurst(t *testing.T) {
	cl, c, h := setup(t)
	ctx := context.Background()

	got, err := cl.UpdateSettings(ctx, map[string]interface{}{
		"sellMode":     "count",
		"sellCount":    4,
		"rebuyDelayMs": 0,
		"selected":     map[string]interface{}{"Farm": true, "Mine": true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Fields["sellCount"].GetNumberValue() != 4 || c.Settings().SellMode != settings.SellCount {
		t.Fatalf("settings=%v", got)
	}
	order := got.Fields["selectedOrder"].GetListValue().GetValues()
	if len(order) != 2 || order[0].GetStringValue() != "Farm" {
		t.Fatalf("order=%v", order)
	}

	res, err := cl.Burst(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fields["outcome"].GetStringValue() != "completed" || res.Fields["total"].GetNumberValue() != 6 {
		t.Fatalf("result=%v", res)
	}
	if a := h.Amounts(); a["Farm"] != 6 || a["Mine"] != 2 {
		t.Fatalf("amounts=%v", a)
	}
}

func TestUpdateSettingsRejectsUnknownKey(t *testing.T) {
	cl, _, _ := setup(t)
	_, err := cl.UpdateSettings(context.Background(), map[string]interface{}{"volume": 11})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("err=%v", err)
	}
	_, err = cl.UpdateSettings(context.Background(), map[string]interface{}{"selected": true})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("err=%v", err)
	}
}

func TestStatusListsUnits(t *testing.T) {
	cl, _, _ := setup(t)
	st, err := cl.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	units := st.Fields["units"].GetStructValue().GetFields()
	if units["Farm"].GetNumberValue() != 6 || units["Cursor"].GetNumberValue() != 1 {
		t.Fatalf("units=%v", units)
	}
	if st.Fields["bursting"].GetBoolValue() {
		t.Fatal("idle controller reported a burst")
	}
}

func TestGetSettingsDefaults(t *testing.T) {
	cl, _, _ := setup(t)
	got, err := cl.GetSettings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Fields["sellMode"].GetStringValue() != "all" || got.Fields["rebuyDelayMs"].GetNumberValue() != 200 {
		t.Fatalf("settings=%v", got)
	}
}

func TestBurstRebuysAfterClientDeadline(t *testing.T) {
	cl, _, h := setup(t)
	ctx := context.Background()
	if _, err := cl.UpdateSettings(ctx, map[string]interface{}{
		"rebuyDelayMs": 300,
		"selected":     map[string]interface{}{"Farm": true, "Mine": true},
	}); err != nil {
		t.Fatal(err)
	}

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if _, err := cl.Burst(short); status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("err=%v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		a := h.Amounts()
		if a["Farm"] == 6 && a["Mine"] == 2 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("buildings not bought back: %v", a)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
