package listing_client

const (
	CreateAuctionEndpoint = "/auction/create"
	AuctionDetailEndpoint = "/auction/%s"
	LoginEndpoint         = "/auth/login"

	SessionCookieName = "access_token_cookie"
)
