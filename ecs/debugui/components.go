package debugui

import (
	"github.com/plus3/hearth/ecs"
)

// Selection is the entity shared between the browser and the inspector.
type Selection struct {
	Entity ecs.Ref
}

type EntityBrowserComponent struct {
	ecs.BaseComponent
	filterText         string
	maxEntitiesPerPage int
	currentPage        int
}

type ComponentInspectorComponent struct {
	ecs.BaseComponent
}

type TypeViewerComponent struct {
	ecs.BaseComponent
	cache         *TypeViewerCache
	selectedBit   int
	sortColumn    int
	sortAscending bool
}

type PerformanceStatsComponent struct {
	ecs.BaseComponent
	historyFrames int
	frameHistory  []float32
	frameIndex    int
	timer         *FrameTimer
}

type QueryDebuggerComponent struct {
	ecs.BaseComponent
	selectedComponentTypes map[string]bool
}

func selection(w *ecs.World) *Selection {
	if s := ecs.GetResource[Selection](w); s != nil {
		return s
	}
	return ecs.AddResource(w, Selection{})
}

// Select makes e the inspected entity.
func Select(w *ecs.World, e *ecs.Entity) {
	selection(w).Entity = w.Ref(e)
}

// Selected returns the inspected entity, or nil once it is gone.
func Selected(w *ecs.World) *ecs.Entity {
	return selection(w).Entity.Get()
}
