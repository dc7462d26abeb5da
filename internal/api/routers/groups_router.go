package routers

import (
	"net/http"

	"splitledger/internal/api/handlers/groups"
)

func groupsRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/groups/create", groups.CreateGroupHandler)

	mux.HandleFunc("/groups/", groups.GetMyGroupsHandler)

	mux.HandleFunc("/groups/{id}", groups.GetGroupByIDHandler)

	mux.HandleFunc("/groups/delete/{id}", groups.DeleteGroupHandler)

	mux.HandleFunc("/groups/update/{id}", groups.UpdateGroupHandler)

	mux.HandleFunc("/groups/join", groups.JoinGroupByCodeHandler)

	mux.HandleFunc("/groups/code/{code}/preview", groups.GroupCodePreviewHandler)

	mux.HandleFunc("/groups/member/{id}/add", groups.AddMemberHandler)

	mux.HandleFunc("/groups/member/{id}/remove", groups.RemoveGroupMemberHandler)

	mux.HandleFunc("/groups/member/{id}/leave", groups.LeaveGroupHandler)

	mux.HandleFunc("/groups/member/{id}/promote", groups.PromoteMemberHandler)

	mux.HandleFunc("/groups/member/{id}/demote", groups.DemoteAdminHandler)

	mux.HandleFunc("/groups/member/{id}/invite", groups.InviteMembersHandler)

	mux.HandleFunc("/groups/member/accept/{tokenCode}/invite", groups.AcceptInvitationHandler)

	mux.HandleFunc("/groups/invites/{id}/revoke", groups.RevokeInvitationHandler)

	mux.HandleFunc("/groups/{id}/invites/pending", groups.ListPendingInvitesHandler)

	mux.HandleFunc("/groups/{groupId}/invites/{inviteId}/resend", groups.ResendInviteHandler)

	mux.HandleFunc("/groups/{id}/balances", groups.GetGroupBalancesHandler)

	mux.HandleFunc("/groups/{id}/history", groups.GetGroupHistoryHandler)

	mux.HandleFunc("/groups/{id}/settlements", groups.GetSettlementsHandler)

	mux.HandleFunc("/groups/{id}/settlements/cleanup", groups.CleanupSettlementsHandler)

	return mux
}
