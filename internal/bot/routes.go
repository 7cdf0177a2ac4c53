package bot

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, webhookPath string, h *Handler) {
	r.Post(webhookPath, h.HandleWebhook)
}
