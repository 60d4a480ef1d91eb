package server

import (
	"net/http"

	donationdomain "github.com/dunamis-edu/dunamis/internal/donation/domain"
	"github.com/dunamis-edu/dunamis/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createCheckoutRequest struct {
	Amount     float64 `json:"amount"`
	Purpose    string  `json:"purpose"`
	DonorName  string  `json:"donor_name"`
	DonorEmail string  `json:"donor_email"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.donationSvc.InitiateCheckout(c.Request.Context(), donationdomain.CreateDonationRequest{
		Amount:     req.Amount,
		Purpose:    req.Purpose,
		DonorName:  req.DonorName,
		DonorEmail: req.DonorEmail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateManualDonation(c *gin.Context) {
	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	donation, err := s.donationSvc.RecordManual(c.Request.Context(), donationdomain.CreateDonationRequest{
		Amount:     req.Amount,
		Purpose:    req.Purpose,
		DonorName:  req.DonorName,
		DonorEmail: req.DonorEmail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, donation)
}

func (s *Server) ListDonations(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.donationSvc.List(c.Request.Context(), donationdomain.ListRequest{
		PageToken: page.PageToken,
		PageSize:  page.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
