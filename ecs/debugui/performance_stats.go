package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
)

func NewPerformanceStatsComponent(historyFrames int) *PerformanceStatsComponent {
	return &PerformanceStatsComponent{
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
		timer:         NewFrameTimer(),
	}
}

// Record stores one frame time in the ring buffer.
func (ps *PerformanceStatsComponent) Record(deltaTime float32) {
	ps.frameHistory[ps.frameIndex] = deltaTime * 1000.0
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
}

// AverageFrameTime returns the mean of the recorded frame times in milliseconds.
func (ps *PerformanceStatsComponent) AverageFrameTime() float32 {
	var total float32
	for _, ft := range ps.frameHistory {
		total += ft
	}
	return total / float32(ps.historyFrames)
}

func (ps *PerformanceStatsComponent) Render() {
	w := ps.World()
	if w == nil {
		return
	}

	ps.Record(ps.timer.GetDeltaTime())

	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	stats := w.Stats()

	imgui.Text(fmt.Sprintf("Entities: %d (%d roots, %d indexed)", stats.Entities, stats.Roots, stats.IndexedEntities))
	imgui.Text(fmt.Sprintf("Components: %d across %d types", stats.Components, stats.ComponentTypes))
	imgui.Text(fmt.Sprintf("Cached Queries: %d", stats.CachedQueries))
	imgui.Text(fmt.Sprintf("Frame: %d  Fixed Steps: %d", stats.Frames, stats.FixedSteps))
	imgui.Text(fmt.Sprintf("Elapsed: %.2fs  Dropped: %.3fs", stats.Elapsed, stats.DroppedTime))

	paused := w.Paused()
	if imgui.Checkbox("Paused", &paused) {
		w.SetPaused(paused)
	}
	scale := float32(w.TimeScale())
	imgui.SetNextItemWidth(150)
	if imgui.InputFloat("Time Scale", &scale) && scale >= 0 {
		w.SetTimeScale(float64(scale))
	}

	avgFrameTime := ps.AverageFrameTime()
	if avgFrameTime > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avgFrameTime, 1000.0/avgFrameTime))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	if imgui.TreeNodeStr("System Details") {
		sched := w.Scheduler().GetStats()
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("SystemStatsTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("System")
			imgui.TableSetupColumn("Runs")
			imgui.TableSetupColumn("Avg")
			imgui.TableSetupColumn("Max")
			imgui.TableSetupColumn("Enabled")
			imgui.TableHeadersRow()

			systems := w.Scheduler().Systems()
			for i, s := range sched.Systems {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(s.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", s.ExecutionCount))
				imgui.TableNextColumn()
				imgui.Text(s.AvgDuration.String())
				imgui.TableNextColumn()
				imgui.Text(s.MaxDuration.String())
				imgui.TableNextColumn()
				enabled := s.Enabled
				if i < len(systems) && imgui.Checkbox(fmt.Sprintf("##sys%d", i), &enabled) {
					w.SetSystemEnabled(systems[i], enabled)
				}
			}

			imgui.EndTable()
		}
		imgui.Text(fmt.Sprintf("Total: %d systems, %d runs", sched.SystemCount, sched.TotalExecutions))
		imgui.TreePop()
	}

	imgui.End()
}

type FrameTimer struct {
	lastFrameTime time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{
		lastFrameTime: time.Now(),
	}
}

func (ft *FrameTimer) GetDeltaTime() float32 {
	now := time.Now()
	delta := float32(now.Sub(ft.lastFrameTime).Seconds())
	ft.lastFrameTime = now
	return delta
}
