package http

import (
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/service"
)

// Handler bundles the dependencies for accounts HTTP endpoints.
type Handler struct {
	accounts *service.AccountService
	log      *zap.Logger
}

func New(accounts *service.AccountService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{accounts: accounts, log: log}
}

// accountBody is the inner object of a PUT body. Omitted fields stay nil.
type accountBody struct {
	Description *string `json:"description"`
	Manager     *string `json:"manager"`
}

type upsertReq struct {
	Account *accountBody `json:"account"`
}

// accountView is the canonical account representation.
type accountView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Manager     string `json:"manager"`
}

type accountResp struct {
	Account accountView `json:"account"`
}

func newAccountResp(a *domain.Account) accountResp {
	return accountResp{Account: accountView{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Manager:     a.Manager,
	}}
}
