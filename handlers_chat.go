package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cultivos/advisor"
	"cultivos/agronomy"
	"cultivos/apperr"
	"cultivos/models"
)

// handleChat answers one advisor message. Farm-aware answers use the farm
// named by farm_id, or the caller's most recent farm when none is given.
func (a *App) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatReq
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		a.writeError(w, r, apperr.MissingFields([]string{"message"}))
		return
	}

	farm, err := a.chatFarm(r, req.FarmID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var env *agronomy.Environment
	resp := chatResp{ID: uuid.NewString(), Timestamp: time.Now().UTC()}
	if farm != nil {
		e := farm.Environment()
		env = &e
		resp.FarmID = farm.ID.Hex()
	}

	reply := a.advisor.Respond(req.Message, env)
	resp.Message = reply.Message
	resp.HTML = renderMarkdown(reply.Message)
	resp.Route = reply.Route
	resp.ModelType = reply.ModelType
	resp.Category = reply.Category
	resp.Confidence = reply.Confidence
	resp.Suggestions = reply.Suggestions
	resp.Recommendations = reply.Recommendations

	a.log.Debug("chat route=%s model=%s confidence=%.2f farm=%t", reply.Route, reply.ModelType, reply.Confidence, farm != nil)
	writeJSON(w, http.StatusOK, resp)
}

// chatFarm resolves the farm for a chat message. Anonymous callers get no
// farm; asking for a specific farm requires a token.
func (a *App) chatFarm(r *http.Request, farmID string) (*models.Farm, error) {
	uid := userID(r)
	farmID = strings.TrimSpace(farmID)

	if farmID != "" {
		if uid.IsZero() {
			return nil, apperr.Unauthorized("farm_id requires authentication")
		}
		oid, err := primitive.ObjectIDFromHex(farmID)
		if err != nil {
			return nil, apperr.InvalidFields([]string{"farm_id"})
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		return a.farms.GetFarm(ctx, oid, uid)
	}
	if uid.IsZero() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	farms, err := a.farms.ListFarms(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(farms) == 0 {
		return nil, nil
	}
	return &farms[0], nil
}

type chatInfo struct {
	Routes           []advisor.Route     `json:"routes"`
	ModelTypes       []advisor.ModelType `json:"model_types"`
	ClassifierLoaded bool                `json:"classifier_loaded"`
	Categories       []string            `json:"categories,omitempty"`
	VocabularySize   int                 `json:"vocabulary_size"`
	CannedThreshold  float64             `json:"canned_threshold"`
	HybridThreshold  float64             `json:"hybrid_threshold"`
	CompatThreshold  float64             `json:"compat_threshold"`
	ExpertTopics     []string            `json:"expert_topics"`
	SupportedCrops   []string            `json:"supported_crops"`
}

// handleChatInfo describes the classifier and the expert system.
func (a *App) handleChatInfo(w http.ResponseWriter, r *http.Request) {
	info := chatInfo{
		Routes:           []advisor.Route{advisor.RoutePrediction, advisor.RouteRecommendation, advisor.RouteTechnical, advisor.RouteGeneral},
		ModelTypes:       []advisor.ModelType{advisor.ModelExpert, advisor.ModelClassifier, advisor.ModelHybrid, advisor.ModelMLPrediction},
		ClassifierLoaded: a.advisor.HasClassifier(),
		CannedThreshold:  advisor.CannedThreshold,
		HybridThreshold:  advisor.HybridThreshold,
		CompatThreshold:  a.advisor.Threshold(),
		ExpertTopics:     []string{"suelo", "clima", "riego", "analisis"},
		SupportedCrops:   cropNames(a.profiles),
	}
	if a.classifier != nil {
		info.Categories = a.classifier.Categories()
		info.VocabularySize = a.classifier.VocabularySize()
	}
	writeJSON(w, http.StatusOK, info)
}

// renderMarkdown converts an advisor answer to HTML for the chat widget.
func renderMarkdown(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	rd := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(markdown.ToHTML([]byte(md), p, rd))
}

func cropNames(profiles []agronomy.CropProfile) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Name)
	}
	return out
}
