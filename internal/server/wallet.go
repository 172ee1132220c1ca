package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	partnerdomain "github.com/servizo/walletd/internal/partner/domain"
	walletdomain "github.com/servizo/walletd/internal/wallet/domain"
	"github.com/servizo/walletd/pkg/db/pagination"
)

func (s *Server) GetPartnerWallet(c *gin.Context) {
	partnerID, err := parsePartnerParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	balance, err := s.walletSvc.Balance(c.Request.Context(), partnerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"partner_id":     partnerID,
		"wallet_balance": balance,
	})
}

func (s *Server) ListPartnerWalletTransactions(c *gin.Context) {
	partnerID, err := parsePartnerParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if page.PageSize <= 0 {
		page.PageSize = 20
	}
	if page.PageSize > 100 {
		page.PageSize = 100
	}

	var beforeID snowflake.ID
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		raw, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		beforeID = snowflake.ID(raw)
	}

	txs, err := s.walletSvc.ListTransactions(c.Request.Context(), partnerID, beforeID, page.PageSize+1)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	txs, pageInfo := pagination.BuildCursorPageInfo(txs, page.PageSize, func(tx *walletdomain.Transaction) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: tx.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"page_info":    pageInfo,
	})
}

func parsePartnerParam(c *gin.Context) (int64, error) {
	partnerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || partnerID <= 0 {
		return 0, partnerdomain.ErrInvalidID
	}
	return partnerID, nil
}
