package request

type AssignAddress struct {
	Chain     string `json:"chain" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
}
