package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/recipebook/internal/service"
	"github.com/dukerupert/recipebook/internal/websocket"
)

type PlanHandler struct {
	plans  *service.PlanService
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewPlanHandler(ps *service.PlanService, hub *websocket.Hub, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{plans: ps, hub: hub, logger: logger}
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	plans, err := h.plans.ListRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, h.logger, "list plans", err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *PlanHandler) ShoppingList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sections, err := h.plans.ShoppingList(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, h.logger, "build shopping list", err)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	plan, err := h.plans.Get(id)
	if err != nil {
		writeServiceError(w, h.logger, "get plan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.PlanInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	plan, err := h.plans.Create(in)
	if err != nil {
		writeServiceError(w, h.logger, "create plan", err)
		return
	}

	h.hub.Publish(websocket.NewMessage(websocket.EntityPlan, websocket.ActionCreated, plan.ID))
	writeJSON(w, http.StatusCreated, plan)
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.plans.Delete(id); err != nil {
		writeServiceError(w, h.logger, "delete plan", err)
		return
	}

	h.hub.Publish(websocket.NewMessage(websocket.EntityPlan, websocket.ActionDeleted, id))
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	days := service.DefaultGenerateDays
	n, err := queryInt(r, "days")
	if err != nil {
		writeError(w, http.StatusBadRequest, "days must be an integer")
		return
	}
	if n != nil {
		days = *n
	}

	count, err := h.plans.Generate(days)
	if err != nil {
		writeServiceError(w, h.logger, "generate plans", err)
		return
	}

	msg := websocket.NewMessage(websocket.EntityPlan, websocket.ActionGenerated, 0)
	msg.Count = count
	h.hub.Publish(msg)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Generated plans for %d days", days),
		"count":   count,
	})
}
