package tests

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/signalsfoundry/sentinel-orbital/catalog"
	"github.com/signalsfoundry/sentinel-orbital/core"
	"github.com/signalsfoundry/sentinel-orbital/internal/api"
	"github.com/signalsfoundry/sentinel-orbital/internal/logging"
	"github.com/signalsfoundry/sentinel-orbital/internal/observability"
	"github.com/signalsfoundry/sentinel-orbital/internal/sim"
	"github.com/signalsfoundry/sentinel-orbital/model"
	"github.com/signalsfoundry/sentinel-orbital/timectrl"
)

type apiTestEnv struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cat      *catalog.Catalog
	engine   *sim.Engine
	tc       *timectrl.TimeController
	server   *api.Server
	serveErr <-chan error
	baseURL  string
	wsURL    string
	client   *http.Client
}

// newAPITestEnv serves the full API over a real listener. The catalog
// holds one asset flanked by two fragments on the same circular
// equatorial track, so separations stay constant at 100 and 150 km and
// every assessment the flow sees is exact.
func newAPITestEnv(t *testing.T) *apiTestEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	cat := catalog.NewCatalog()
	err := cat.AddAll([]model.OrbitalObject{
		{
			ID:       "SAT-1",
			Name:     "SENTINEL-1 1",
			Class:    model.ClassAsset,
			Color:    core.AssetColor,
			Elements: model.OrbitalElements{A: 7000, N: 0.001},
		},
		{
			ID:       "DEB-1000",
			Name:     "DEBRIS FRAGMENT #1",
			Class:    model.ClassDebris,
			Color:    core.DebrisColor,
			Elements: model.OrbitalElements{A: 7100, N: 0.001},
		},
		{
			ID:       "DEB-1001",
			Name:     "DEBRIS FRAGMENT #2",
			Class:    model.ClassDebris,
			Color:    core.DebrisColor,
			Elements: model.OrbitalElements{A: 7150, N: 0.001},
		},
	})
	if err != nil {
		cancel()
		t.Fatalf("AddAll: %v", err)
	}

	engine := sim.NewEngine(cat, core.NewRandSource(7), sim.WithWorkers(2))
	epoch := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	tc := timectrl.NewTimeController(epoch, 20*time.Millisecond, timectrl.Accelerated)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		cancel()
		t.Fatalf("net.Listen: %v", err)
	}

	collector, err := observability.NewAPICollector(prometheus.NewRegistry())
	if err != nil {
		cancel()
		t.Fatalf("NewAPICollector: %v", err)
	}
	server := api.NewServer(api.Config{}, engine, tc, collector, logging.Noop())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(lis)
	}()

	addr := lis.Addr().String()
	env := &apiTestEnv{
		ctx:      ctx,
		cancel:   cancel,
		cat:      cat,
		engine:   engine,
		tc:       tc,
		server:   server,
		serveErr: serveErr,
		baseURL:  "http://" + addr,
		wsURL:    "ws://" + addr,
		client:   &http.Client{Timeout: 5 * time.Second},
	}

	t.Cleanup(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
		cancel()
	})

	return env
}

func TestEndToEndAPI(t *testing.T) {
	env := newAPITestEnv(t)

	// Readiness gates on the first published frame.
	if code := env.getJSON(t, "/readyz", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before frames = %d, want %d", code, http.StatusServiceUnavailable)
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- env.engine.Run(env.ctx, env.tc, 60*time.Millisecond)
	}()
	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("engine.Run: %v", err)
		}
	case err := <-env.serveErr:
		t.Fatalf("Serve: %v", err)
	case <-env.ctx.Done():
		t.Fatal("context deadline exceeded before sim frames")
	}

	if code := env.getJSON(t, "/readyz", nil); code != http.StatusOK {
		t.Fatalf("readyz after frames = %d, want %d", code, http.StatusOK)
	}
	if got := env.engine.Frames(); got != 3 {
		t.Fatalf("frames after run = %d, want 3", got)
	}

	resp, err := env.client.Get(env.baseURL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	var banner bannerBody
	decodeErr := json.NewDecoder(resp.Body).Decode(&banner)
	resp.Body.Close()
	if decodeErr != nil {
		t.Fatalf("decode banner: %v", decodeErr)
	}
	if banner.System != "SENTINEL" || banner.Status != "ONLINE" {
		t.Fatalf("banner = %+v, want SENTINEL ONLINE", banner)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("banner response missing X-Request-Id header")
	}

	var objects []objectBody
	if code := env.getJSON(t, "/api/orbit", &objects); code != http.StatusOK {
		t.Fatalf("orbit status = %d, want %d", code, http.StatusOK)
	}
	if len(objects) != 3 {
		t.Fatalf("orbit size = %d, want 3", len(objects))
	}
	if objects[0].ID != "SAT-1" || objects[0].Type != "SATELLITE" {
		t.Fatalf("first object = %s/%s, want SAT-1/SATELLITE", objects[0].ID, objects[0].Type)
	}
	if objects[1].ID != "DEB-1000" || objects[1].Type != "DEBRIS" {
		t.Fatalf("second object = %s/%s, want DEB-1000/DEBRIS", objects[1].ID, objects[1].Type)
	}
	if objects[0].Elements.A != 7000 {
		t.Fatalf("SAT-1 semi-major axis = %v, want 7000", objects[0].Elements.A)
	}

	// At t=0 every object sits on the +X axis at its orbit radius.
	var positions []positionBody
	if code := env.getJSON(t, "/api/positions?time=0", &positions); code != http.StatusOK {
		t.Fatalf("positions status = %d, want %d", code, http.StatusOK)
	}
	if len(positions) != 3 {
		t.Fatalf("positions size = %d, want 3", len(positions))
	}
	if positions[0].X != 7000 || positions[0].Y != 0 || positions[0].Z != 0 {
		t.Fatalf("SAT-1 at t=0 = (%v, %v, %v), want (7000, 0, 0)", positions[0].X, positions[0].Y, positions[0].Z)
	}
	if positions[2].X != 7150 {
		t.Fatalf("DEB-1001 at t=0 x = %v, want 7150", positions[2].X)
	}

	var conjunctions []conjunctionBody
	if code := env.getJSON(t, "/api/conjunctions?time=0", &conjunctions); code != http.StatusOK {
		t.Fatalf("conjunctions status = %d, want %d", code, http.StatusOK)
	}
	if len(conjunctions) != 2 {
		t.Fatalf("conjunction count = %d, want 2", len(conjunctions))
	}
	byMiss := make(map[float64]conjunctionBody, len(conjunctions))
	for _, c := range conjunctions {
		if c.RiskLevel != "HIGH" {
			t.Fatalf("conjunction %s risk = %s, want HIGH", c.ID, c.RiskLevel)
		}
		if c.Probability < 0.8 || c.Probability > 0.99 {
			t.Fatalf("conjunction %s probability = %v, want within [0.8, 0.99]", c.ID, c.Probability)
		}
		if c.ObjectA != "SENTINEL-1 1" {
			t.Fatalf("conjunction %s objectA = %q, want SENTINEL-1 1", c.ID, c.ObjectA)
		}
		byMiss[c.MissDistance] = c
	}
	if c, ok := byMiss[100]; !ok || c.ID != "SAT-1-DEB-1000-0" {
		t.Fatalf("100 km conjunction = %+v, want id SAT-1-DEB-1000-0", c)
	}
	if c, ok := byMiss[150]; !ok || c.ID != "SAT-1-DEB-1001-0" {
		t.Fatalf("150 km conjunction = %+v, want id SAT-1-DEB-1001-0", c)
	}

	var clusters clustersBody
	if code := env.getJSON(t, "/api/clusters?time=0", &clusters); code != http.StatusOK {
		t.Fatalf("clusters status = %d, want %d", code, http.StatusOK)
	}
	if clusters.SimTime != 0 {
		t.Fatalf("clusters simTime = %v, want 0", clusters.SimTime)
	}
	if len(clusters.Clusters) != 1 || len(clusters.Singles) != 0 {
		t.Fatalf("clusters = %d groups and %d singles, want 1 and 0", len(clusters.Clusters), len(clusters.Singles))
	}
	if got := clusters.Clusters[0]; got.Count != 2 || got.Centroid.X != 7125 || got.Centroid.Y != 0 {
		t.Fatalf("cluster = %+v, want count 2 centred at x=7125", got)
	}

	var planned maneuverBody
	if code := env.postJSON(t, "/api/maneuver", `{"target_id": "SAT-1"}`, &planned); code != http.StatusOK {
		t.Fatalf("maneuver status = %d, want %d", code, http.StatusOK)
	}
	if planned.Status != "MANEUVER_PLANNED" {
		t.Fatalf("maneuver status field = %q, want MANEUVER_PLANNED", planned.Status)
	}
	if planned.Plan.TargetID != "SAT-1" || planned.Plan.ID == "" {
		t.Fatalf("plan = %+v, want target SAT-1 with an id", planned.Plan)
	}
	if planned.Plan.ThrustN < 1.2 || planned.Plan.ThrustN > 2.2 {
		t.Fatalf("plan thrust = %v, want within [1.2, 2.2]", planned.Plan.ThrustN)
	}
	if planned.Plan.Duration < 5 || planned.Plan.Duration > 14 {
		t.Fatalf("plan duration = %d, want within [5, 14]", planned.Plan.Duration)
	}
	if planned.Projected.ID != "SAT-1-MNVR" {
		t.Fatalf("projected id = %q, want SAT-1-MNVR", planned.Projected.ID)
	}
	wantA := 7000 + planned.Plan.Vector[0]*300
	if math.Abs(planned.Projected.Elements.A-wantA) > 1e-9 {
		t.Fatalf("projected semi-major axis = %v, want %v", planned.Projected.Elements.A, wantA)
	}

	// Plans are advisory: the catalog entry itself never moves.
	var after []objectBody
	if code := env.getJSON(t, "/api/orbit", &after); code != http.StatusOK {
		t.Fatalf("orbit status after maneuver = %d, want %d", code, http.StatusOK)
	}
	if len(after) != 3 {
		t.Fatalf("orbit size after maneuver = %d, want 3", len(after))
	}
	if after[0].Elements.A != 7000 {
		t.Fatalf("SAT-1 semi-major axis after maneuver = %v, want 7000", after[0].Elements.A)
	}
}

func TestManeuverUnknownTargetE2E(t *testing.T) {
	env := newAPITestEnv(t)

	var fail errorBody
	if code := env.postJSON(t, "/api/maneuver", `{"target_id": "GHOST-9"}`, &fail); code != http.StatusNotFound {
		t.Fatalf("maneuver status = %d, want %d", code, http.StatusNotFound)
	}
	if !strings.Contains(fail.Error, "not found") {
		t.Fatalf("error body = %q, want a not found message", fail.Error)
	}

	if assets, debris := env.cat.Counts(); assets != 1 || debris != 2 {
		t.Fatalf("catalog counts = (%d, %d), want (1, 2) after failed plan", assets, debris)
	}
}

func TestStreamOverLiveServerE2E(t *testing.T) {
	env := newAPITestEnv(t)

	conn, resp, err := websocket.DefaultDialer.Dial(env.wsURL+"/api/stream", nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()
	if resp != nil {
		resp.Body.Close()
	}

	// Keep stepping until the subscriber has seen both message kinds;
	// steps published before the subscription lands are simply missed.
	stop := make(chan struct{})
	stepped := make(chan struct{})
	go func() {
		defer close(stepped)
		for i := 1; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			env.engine.Step(env.ctx, float64(i))
			time.Sleep(5 * time.Millisecond)
		}
	}()
	defer func() {
		close(stop)
		<-stepped
	}()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var sawFrame, sawAssessment bool
	for !sawFrame || !sawAssessment {
		var msg struct {
			Type      string         `json:"type"`
			SimTime   float64        `json:"simTime"`
			Positions []positionBody `json:"positions"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		switch msg.Type {
		case "frame":
			if len(msg.Positions) != 3 {
				t.Fatalf("frame positions = %d, want 3", len(msg.Positions))
			}
			sawFrame = true
		case "assessment":
			sawAssessment = true
		}
	}
}

func (env *apiTestEnv) getJSON(t *testing.T, path string, out any) int {
	t.Helper()

	resp, err := env.client.Get(env.baseURL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode GET %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func (env *apiTestEnv) postJSON(t *testing.T, path, body string, out any) int {
	t.Helper()

	resp, err := env.client.Post(env.baseURL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode POST %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

type bannerBody struct {
	System string `json:"system"`
	Status string `json:"status"`
}

type elementsBody struct {
	A float64 `json:"a"`
	I float64 `json:"i"`
	O float64 `json:"O"`
	N float64 `json:"n"`
}

type objectBody struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Elements elementsBody `json:"elements"`
	Color    string       `json:"color"`
}

type positionBody struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

type conjunctionBody struct {
	ID           string  `json:"id"`
	ObjectA      string  `json:"objectA"`
	ObjectB      string  `json:"objectB"`
	TimeToImpact float64 `json:"timeToImpact"`
	Probability  float64 `json:"probability"`
	RiskLevel    string  `json:"riskLevel"`
	MissDistance float64 `json:"missDistance"`
}

type vecBody struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type clusterBody struct {
	Centroid vecBody `json:"centroid"`
	Count    int     `json:"count"`
}

type clustersBody struct {
	SimTime  float64        `json:"simTime"`
	Clusters []clusterBody  `json:"clusters"`
	Singles  []positionBody `json:"singles"`
}

type planBody struct {
	ID       string     `json:"id"`
	TargetID string     `json:"targetId"`
	ThrustN  float64    `json:"thrustN"`
	Vector   [3]float64 `json:"vector"`
	Duration int        `json:"duration"`
}

type maneuverBody struct {
	Status    string     `json:"status"`
	Plan      planBody   `json:"plan"`
	Projected objectBody `json:"projected"`
}

type errorBody struct {
	Error string `json:"error"`
}
